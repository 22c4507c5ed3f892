package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeywordsMissingFileCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yml")

	kw, err := LoadKeywords(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultKeywords(), kw)

	// The file now exists and loads back the same lists.
	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
	again, err := LoadKeywords(path)
	require.NoError(t, err)
	assert.Equal(t, kw, again)
}

func TestLoadKeywordsMalformedDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yml")
	require.NoError(t, os.WriteFile(path, []byte("high_priority: [unclosed"), 0o644))

	kw, err := LoadKeywords(path)
	assert.Error(t, err)
	assert.Empty(t, kw.HighPriority)
	assert.Empty(t, kw.MediumPriority)
}

func TestLoadKeywordsCustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
high_priority:
  - kubernetes
medium_priority:
  - terraform
  - aws
`), 0o644))

	kw, err := LoadKeywords(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"kubernetes"}, kw.HighPriority)
	assert.Equal(t, []string{"terraform", "aws"}, kw.MediumPriority)
}

package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/timmm229/linkedin-job-tracker/internal/domain"
)

var testDate = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func posting(url, title string, tier domain.Tier) domain.Posting {
	return domain.Posting{
		URL:      url,
		Title:    title,
		Company:  "Acme Corp",
		Location: "Dallas, TX",
		Priority: tier,
		Added:    testDate,
	}
}

func TestExistingKeysMissingFileIsEmpty(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "jobs.xlsx"))

	keys, err := l.ExistingKeys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestAppendCreatesWorkbookWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.xlsx")
	l := New(path)

	require.NoError(t, l.Append([]domain.Posting{
		posting("https://www.linkedin.com/jobs/view/111", "Platform Engineer", domain.TierLow),
	}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{
		"3", "Platform Engineer", "Acme Corp", "Dallas, TX",
		"Not specified", "Not Listed",
		"https://www.linkedin.com/jobs/view/111", "2026-08-30",
	}, rows[1])
}

func TestAppendKeepsExistingRowsAndOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.xlsx")
	l := New(path)

	require.NoError(t, l.Append([]domain.Posting{
		posting("https://www.linkedin.com/jobs/view/111", "First", domain.TierMedium),
	}))
	require.NoError(t, l.Append([]domain.Posting{
		posting("https://www.linkedin.com/jobs/view/222", "Second", domain.TierHigh),
		posting("https://www.linkedin.com/jobs/view/333", "Third", domain.TierLow),
	}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	// Previously persisted rows never move; new rows land after them in the
	// order they were given.
	assert.Equal(t, "First", rows[1][1])
	assert.Equal(t, "Second", rows[2][1])
	assert.Equal(t, "Third", rows[3][1])
}

func TestAppendRoundTripsThroughExistingKeys(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "jobs.xlsx"))

	want := []string{
		"https://www.linkedin.com/jobs/view/111",
		"https://www.linkedin.com/jobs/view/222",
	}
	require.NoError(t, l.Append([]domain.Posting{
		posting(want[0], "A", domain.TierHigh),
		posting(want[1], "B", domain.TierLow),
	}))

	keys, err := l.ExistingKeys()
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	for _, u := range want {
		assert.Contains(t, keys, u)
	}
}

func TestAppendEmptyBatchDoesNotCreateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.xlsx")
	l := New(path)

	require.NoError(t, l.Append(nil))

	keys, err := l.ExistingKeys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

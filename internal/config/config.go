package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Keywords holds the two ordered priority lists. Order matters: the
// classifier takes the first containment hit, so earlier entries win.
type Keywords struct {
	HighPriority   []string `yaml:"high_priority"`
	MediumPriority []string `yaml:"medium_priority"`
}

func DefaultKeywords() Keywords {
	return Keywords{
		HighPriority: []string{
			"oracle erp", "oracle epm", "technical sales", "fusion", "netsuite",
			"manager", "senior manager", "pwc", "pricewaterhousecoopers",
		},
		MediumPriority: []string{
			"oracle cloud", "oracle application", "oracle consultant",
			"oracle developer", "oracle hcm", "oracle scm",
		},
	}
}

// LoadKeywords reads the keyword lists from path. A missing file is created
// with the defaults and the defaults are returned. A malformed file returns
// empty lists alongside the parse error so the caller can warn and keep
// going; a keywords problem must never abort a run.
func LoadKeywords(path string) (Keywords, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		kw := DefaultKeywords()
		if werr := writeKeywords(path, kw); werr != nil {
			return kw, fmt.Errorf("create default keywords file: %w", werr)
		}
		return kw, nil
	}
	if err != nil {
		return Keywords{}, fmt.Errorf("read keywords file: %w", err)
	}

	var kw Keywords
	if err := yaml.Unmarshal(b, &kw); err != nil {
		return Keywords{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return kw, nil
}

func writeKeywords(path string, kw Keywords) error {
	b, err := yaml.Marshal(kw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

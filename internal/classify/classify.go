package classify

import (
	"strings"

	"github.com/timmm229/linkedin-job-tracker/internal/domain"
)

// Classifier assigns a priority tier from keyword containment. Lists are
// scanned in configured order and the first hit wins, so the result depends
// only on list order and substring matching.
type Classifier struct {
	High   []string
	Medium []string
}

// Tier classifies a posting by its title and company. High-list hit → tier 1,
// medium-list hit → tier 2, otherwise tier 3. Empty lists (e.g. after a
// malformed keywords file degraded to defaults) classify everything as low.
func (c Classifier) Tier(title, company string) domain.Tier {
	text := strings.ToLower(title + " " + company)

	for _, kw := range c.High {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return domain.TierHigh
		}
	}
	for _, kw := range c.Medium {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return domain.TierMedium
		}
	}
	return domain.TierLow
}

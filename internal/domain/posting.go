package domain

import (
	"strings"
	"time"
)

// Tier is the relevance bucket a posting lands in. Lower is better:
// tier 1 rows float to the top of every batch.
type Tier int

const (
	TierHigh   Tier = 1
	TierMedium Tier = 2
	TierLow    Tier = 3
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	default:
		return "unknown"
	}
}

// Field limits applied after cleanup, in runes.
const (
	MaxTitleLen    = 200
	MaxCompanyLen  = 100
	MaxLocationLen = 100
)

// NotFound is recorded when every extraction probe for a field came up empty.
const NotFound = "Not found"

// NotSpecified is LinkedIn's own placeholder for an unset location. Postings
// that resolve to it carry too little information to keep.
const NotSpecified = "Not specified"

// Posting is one enriched job posting. URL is the canonical identifier and
// the dedup key; rows are immutable once they reach the ledger.
type Posting struct {
	URL      string
	Title    string
	Company  string
	Location string
	Priority Tier
	Added    time.Time
}

// LowInformation reports whether the posting should be dropped by policy.
func (p Posting) LowInformation() bool {
	return strings.EqualFold(p.Location, NotSpecified)
}

package extract

import (
	"fmt"
	"regexp"
)

// LinkedIn embeds the numeric posting id in two URL shapes seen in alert
// emails. Both collapse to the same canonical /jobs/view/<id> URL; tracking
// params, the /comm/ segment, and the www. prefix all go away.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https://(?:www\.)?linkedin\.com/jobs/view/(\d+)`),
	regexp.MustCompile(`(?i)https://(?:www\.)?linkedin\.com/comm/jobs/view/(\d+)`),
}

// Canonical builds the canonical posting URL for a numeric id.
func Canonical(jobID string) string {
	return fmt.Sprintf("https://www.linkedin.com/jobs/view/%s", jobID)
}

// URLs scans one message body (HTML or plain text) and returns the canonical
// posting URLs it references, deduplicated, in first-seen order. A body with
// no job links yields an empty slice; that is not an error.
func URLs(body string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(body, -1) {
			u := Canonical(m[1])
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}

// Union merges per-message URL lists across a batch, collapsing duplicates
// while preserving the order links were first encountered. The stable order
// matters downstream: enrichment walks survivors in exactly this order.
func Union(batches ...[]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, b := range batches {
		for _, u := range b {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}

package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/timmm229/linkedin-job-tracker/internal/classify"
	"github.com/timmm229/linkedin-job-tracker/internal/domain"
	"github.com/timmm229/linkedin-job-tracker/internal/enrich"
	"github.com/timmm229/linkedin-job-tracker/internal/extract"
	"github.com/timmm229/linkedin-job-tracker/internal/ledger"
	"github.com/timmm229/linkedin-job-tracker/internal/tracker"
)

// MailSource hands back the textual bodies of the recent alert emails.
// Failure here is a connection-class error: the run aborts before any state
// is touched.
type MailSource interface {
	FetchBodies(ctx context.Context) ([]string, error)
}

// Enricher resolves one canonical posting URL to a per-item result.
type Enricher interface {
	Fetch(ctx context.Context, url string) enrich.Result
}

// Result summarizes one completed run. Postings holds the rows this run
// appended, in ledger order.
type Result struct {
	URLsFound  int
	JobsAdded  int
	Postings   []domain.Posting
	StartedAt  time.Time
	FinishedAt time.Time
}

// Pipeline walks one finite batch end to end, strictly sequentially:
// fetch messages, extract identifiers, filter against the ledger, enrich
// with pacing, classify, persist. Per-item failures become skips and
// counters; they never cross into the persistence step.
type Pipeline struct {
	Mail       MailSource
	Enricher   Enricher
	Classifier classify.Classifier
	Ledger     *ledger.Ledger

	// Pacer spaces successive enrichment calls so the remote side does not
	// rate-limit us. Nil means no pacing (tests).
	Pacer *rate.Limiter

	// State, when set, receives the run's new rows on completion. This is
	// the only place it is mutated.
	State *tracker.State

	// Now stubs the run date in tests.
	Now func() time.Time
}

// DefaultPacer spaces enrichment GETs two seconds apart.
func DefaultPacer() *rate.Limiter {
	return rate.NewLimiter(rate.Every(2*time.Second), 1)
}

// Run executes one batch. The returned error is fatal for the run; partial
// per-item trouble only shows up in the counters and the log.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	res := Result{StartedAt: now()}

	bodies, err := p.Mail.FetchBodies(ctx)
	if err != nil {
		return res, fmt.Errorf("fetch messages: %w", err)
	}
	log.Printf("[pipeline] fetched %d messages", len(bodies))

	perMessage := make([][]string, 0, len(bodies))
	for _, body := range bodies {
		perMessage = append(perMessage, extract.URLs(body))
	}
	urls := extract.Union(perMessage...)
	res.URLsFound = len(urls)
	log.Printf("[pipeline] %d unique job URLs in batch", len(urls))

	existing, err := p.Ledger.ExistingKeys()
	if err != nil {
		return res, fmt.Errorf("read ledger keys: %w", err)
	}

	var unseen []string
	for _, u := range urls {
		if _, ok := existing[u]; ok {
			continue
		}
		unseen = append(unseen, u)
	}
	log.Printf("[pipeline] %d already recorded, %d to enrich", len(urls)-len(unseen), len(unseen))

	runDate := now()
	var batch []domain.Posting
	for _, u := range unseen {
		if p.Pacer != nil {
			if err := p.Pacer.Wait(ctx); err != nil {
				return res, err
			}
		}

		r := p.Enricher.Fetch(ctx, u)
		if r.Status == enrich.StatusSkipped {
			log.Printf("[pipeline] skip %s: %s", u, r.Reason)
			continue
		}
		if r.Posting.LowInformation() {
			log.Printf("[pipeline] skip %s: location %q", u, r.Posting.Location)
			continue
		}

		posting := r.Posting
		posting.Priority = p.Classifier.Tier(posting.Title, posting.Company)
		posting.Added = runDate
		batch = append(batch, posting)
	}

	// High tiers first. Ordering applies to this run's rows only; rows
	// already in the ledger never move.
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].Priority < batch[j].Priority
	})

	if err := p.Ledger.Append(batch); err != nil {
		return res, fmt.Errorf("append ledger: %w", err)
	}

	res.JobsAdded = len(batch)
	res.Postings = batch
	res.FinishedAt = now()

	if p.State != nil {
		p.State.SetLatest(batch, res.FinishedAt)
	}

	log.Printf("[pipeline] done: %d unique identifiers found, %d new postings added", res.URLsFound, res.JobsAdded)
	return res, nil
}

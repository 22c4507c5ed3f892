package pipeline

import (
	"context"
	"time"

	"github.com/timmm229/linkedin-job-tracker/internal/mailbox"
)

// IMAPSource is the production MailSource: the recent window of alert emails
// from a single sender, bodies extracted with the HTML part preferred.
type IMAPSource struct {
	Addr     string
	Username string
	Password string

	// Sender substring matched against the From header.
	Sender string
	// DaysBack bounds the window; anything older is not considered.
	DaysBack int
	// MaxMessages caps one batch, newest first.
	MaxMessages int
}

func (s IMAPSource) FetchBodies(ctx context.Context) ([]string, error) {
	sender := s.Sender
	if sender == "" {
		sender = "linkedin.com"
	}
	daysBack := s.DaysBack
	if daysBack <= 0 {
		daysBack = 30
	}
	max := s.MaxMessages
	if max <= 0 {
		max = 50
	}

	cl, err := mailbox.Dial(ctx, s.Addr, s.Username, s.Password)
	if err != nil {
		return nil, err
	}
	defer cl.Close()

	since := time.Now().AddDate(0, 0, -daysBack)
	msgs, err := cl.FetchFrom(ctx, sender, since, max)
	if err != nil {
		return nil, err
	}

	bodies := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if body := mailbox.ExtractBody(m.Raw); body != "" {
			bodies = append(bodies, body)
		}
	}
	return bodies, nil
}

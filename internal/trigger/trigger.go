package trigger

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

type Task func(ctx context.Context) error

// DefaultSpec fires at 9 AM, 12 PM, 3 PM and 6 PM local time.
const DefaultSpec = "0 9,12,15,18 * * *"

// Run blocks, invoking task at the times spec names, until ctx is done.
// The task gets a bounded window per invocation; an overrun or failure is
// logged and the next scheduled firing is the de-facto retry.
func Run(ctx context.Context, spec, name string, budget time.Duration, task Task) error {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		tctx, cancel := context.WithTimeout(ctx, budget)
		defer cancel()

		if err := task(tctx); err != nil {
			log.Printf("[%s] error: %v", name, err)
		}
	})
	if err != nil {
		return err
	}

	log.Printf("[%s] scheduled (%s)", name, spec)
	c.Start()

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	return nil
}

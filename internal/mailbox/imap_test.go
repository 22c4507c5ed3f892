package mailbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatchdogExitsWhenReleased(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	closed := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		closeOnCancel(ctx, release, func() error {
			closed <- struct{}{}
			return nil
		})
		close(done)
	}()

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watchdog did not exit after release")
	}
	assert.Empty(t, closed, "connection closed despite clean release")
}

func TestWatchdogClosesConnectionOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	release := make(chan struct{})
	closed := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		closeOnCancel(ctx, release, func() error {
			closed <- struct{}{}
			return nil
		})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watchdog did not exit after cancel")
	}
	assert.Len(t, closed, 1)
}

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmm229/linkedin-job-tracker/internal/domain"
	"github.com/timmm229/linkedin-job-tracker/internal/events"
	"github.com/timmm229/linkedin-job-tracker/internal/pipeline"
	"github.com/timmm229/linkedin-job-tracker/internal/tracker"
)

func seededState() *tracker.State {
	s := tracker.NewState()
	s.SetLatest([]domain.Posting{
		{URL: "https://www.linkedin.com/jobs/view/1", Title: "A", Priority: domain.TierHigh, Added: time.Now()},
		{URL: "https://www.linkedin.com/jobs/view/2", Title: "B", Priority: domain.TierLow, Added: time.Now()},
	}, time.Now())
	return s
}

func TestJobsListServesLatestBatch(t *testing.T) {
	h := JobsHandler{State: seededState()}

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/jobs", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Jobs      []jobView `json:"jobs"`
		TotalJobs int       `json:"totalJobs"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalJobs)
}

func TestJobsListPriorityFilter(t *testing.T) {
	h := JobsHandler{State: seededState()}

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/jobs?priority=1", nil))

	var resp struct {
		Jobs []jobView `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, "A", resp.Jobs[0].Title)
}

func TestJobsListRejectsBadPriority(t *testing.T) {
	h := JobsHandler{State: seededState()}

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/jobs?priority=9", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRefreshReportsBusy(t *testing.T) {
	h := RunsHandler{
		RunPipeline: func(context.Context) (pipeline.Result, error) {
			return pipeline.Result{}, ErrBusy
		},
	}

	rr := httptest.NewRecorder()
	h.Refresh(rr, httptest.NewRequest(http.MethodPost, "/refresh", nil))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRefreshReturnsCounters(t *testing.T) {
	h := RunsHandler{
		RunPipeline: func(context.Context) (pipeline.Result, error) {
			return pipeline.Result{URLsFound: 3, JobsAdded: 2, FinishedAt: time.Now()}, nil
		},
	}

	rr := httptest.NewRecorder()
	h.Refresh(rr, httptest.NewRequest(http.MethodPost, "/refresh", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, float64(3), resp["urlsFound"])
	assert.Equal(t, float64(2), resp["jobsAdded"])
}

// sseRecorder is a flusher-capable ResponseWriter safe to share between the
// streaming handler goroutine and the test: writes are locked, and each
// Flush is signalled so the test can sequence publishes against delivery.
type sseRecorder struct {
	mu      sync.Mutex
	body    strings.Builder
	header  http.Header
	flushed chan struct{}
}

func newSSERecorder() *sseRecorder {
	return &sseRecorder{header: make(http.Header), flushed: make(chan struct{}, 16)}
}

func (r *sseRecorder) Header() http.Header { return r.header }
func (r *sseRecorder) WriteHeader(int)     {}

func (r *sseRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Write(p)
}

func (r *sseRecorder) Flush() {
	select {
	case r.flushed <- struct{}{}:
	default:
	}
}

func (r *sseRecorder) awaitFlush(t *testing.T) {
	t.Helper()
	select {
	case <-r.flushed:
	case <-time.After(time.Second):
		t.Fatal("stream never flushed")
	}
}

func (r *sseRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

func TestEventsStreamDeliversPublishedEvents(t *testing.T) {
	hub := events.NewHub()
	h := EventsHandler{Hub: hub}

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := newSSERecorder()

	done := make(chan struct{})
	go func() {
		h.ServeSSE(rec, req)
		close(done)
	}()

	// The opening ping flush means the subscription is registered.
	rec.awaitFlush(t)

	hub.Publish("job_created", map[string]any{
		"url":      "https://www.linkedin.com/jobs/view/777",
		"priority": 1,
	})
	rec.awaitFlush(t)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not stop on client disconnect")
	}

	out := rec.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, out, `"type":"ping"`)
	assert.Contains(t, out, "event: message")
	assert.Contains(t, out, `"type":"job_created"`)
	assert.Contains(t, out, "linkedin.com/jobs/view/777")
}

func TestMethodMux(t *testing.T) {
	mux := NewMux(Deps{State: tracker.NewState(), Hub: events.NewHub()})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/jobs", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

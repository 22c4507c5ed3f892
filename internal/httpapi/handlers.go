package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/timmm229/linkedin-job-tracker/internal/domain"
	"github.com/timmm229/linkedin-job-tracker/internal/events"
	"github.com/timmm229/linkedin-job-tracker/internal/pipeline"
	"github.com/timmm229/linkedin-job-tracker/internal/store"
	"github.com/timmm229/linkedin-job-tracker/internal/tracker"
)

// ErrBusy is returned by the injected RunPipeline while a run is in flight.
var ErrBusy = errors.New("a run is already in progress")

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"ok": true, "time": time.Now().Format(time.RFC3339)})
}

type jobView struct {
	Priority int    `json:"priority"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	URL      string `json:"url"`
	Added    string `json:"added"`
}

type JobsHandler struct {
	State *tracker.State
}

// List serves the latest run's batch, optionally filtered by ?priority=N.
func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	batch, updatedAt := h.State.Latest()

	var tierFilter domain.Tier
	if s := r.URL.Query().Get("priority"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 3 {
			http.Error(w, "priority must be 1, 2 or 3", http.StatusBadRequest)
			return
		}
		tierFilter = domain.Tier(n)
	}

	views := make([]jobView, 0, len(batch))
	for _, p := range batch {
		if tierFilter != 0 && p.Priority != tierFilter {
			continue
		}
		views = append(views, jobView{
			Priority: int(p.Priority),
			Title:    p.Title,
			Company:  p.Company,
			Location: p.Location,
			URL:      p.URL,
			Added:    p.Added.Format("2006-01-02"),
		})
	}

	lastUpdated := ""
	if !updatedAt.IsZero() {
		lastUpdated = updatedAt.Format(time.RFC3339)
	}
	writeJSON(w, map[string]any{
		"jobs":        views,
		"totalJobs":   len(views),
		"lastUpdated": lastUpdated,
	})
}

type RunsHandler struct {
	DB          *sql.DB
	RunPipeline func(ctx context.Context) (pipeline.Result, error)
}

func (h RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := store.ListRuns(r.Context(), h.DB, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

// Refresh kicks off a run on demand, outside the daily schedule.
func (h RunsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.RunPipeline(r.Context())
	if errors.Is(err, ErrBusy) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"status":    "success",
		"urlsFound": res.URLsFound,
		"jobsAdded": res.JobsAdded,
		"updatedAt": res.FinishedAt.Format(time.RFC3339),
	})
}

type EventsHandler struct {
	Hub *events.Hub
}

func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(ch)

	writeSSE(w, "ping", events.Make("ping", nil))
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			writeSSE(w, "message", msg)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event, data string) {
	_, _ = w.Write([]byte("event: " + event + "\ndata: " + data + "\n\n"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func methodMux(m map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h, ok := m[r.Method]; ok {
			h(w, r)
			return
		}
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/timmm229/linkedin-job-tracker/internal/events"
	"github.com/timmm229/linkedin-job-tracker/internal/pipeline"
	"github.com/timmm229/linkedin-job-tracker/internal/tracker"
)

type Deps struct {
	DB    *sql.DB
	State *tracker.State
	Hub   *events.Hub

	// RunPipeline triggers one run. The cmd layer serializes invocations;
	// ErrBusy comes back while a run is already in flight.
	RunPipeline func(ctx context.Context) (pipeline.Result, error)
}

func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: healthHandler,
	}))

	jh := JobsHandler{State: d.State}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.List,
	}))

	rh := RunsHandler{DB: d.DB, RunPipeline: d.RunPipeline}
	mux.HandleFunc("/runs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.List,
	}))
	mux.HandleFunc("/refresh", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Refresh,
	}))

	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/timmm229/linkedin-job-tracker/internal/classify"
	"github.com/timmm229/linkedin-job-tracker/internal/config"
	"github.com/timmm229/linkedin-job-tracker/internal/enrich"
	"github.com/timmm229/linkedin-job-tracker/internal/events"
	"github.com/timmm229/linkedin-job-tracker/internal/httpapi"
	"github.com/timmm229/linkedin-job-tracker/internal/ledger"
	"github.com/timmm229/linkedin-job-tracker/internal/pipeline"
	"github.com/timmm229/linkedin-job-tracker/internal/store"
	"github.com/timmm229/linkedin-job-tracker/internal/tracker"
	"github.com/timmm229/linkedin-job-tracker/internal/trigger"
)

const (
	ledgerFile   = "linkedin_jobs_tracker.xlsx"
	keywordsFile = "keywords.yml"
	runsDBFile   = "tracker.db"

	// Wall-clock ceiling for one scheduled run.
	runBudget = 5 * time.Minute
)

func main() {
	once := flag.Bool("once", false, "run the ingestion pipeline once and exit")
	flag.Parse()

	env, err := config.FromEnv()
	if err != nil {
		log.Fatalf("[tracker] %v", err)
	}
	if err := os.MkdirAll(env.DataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	kw, err := config.LoadKeywords(filepath.Join(env.DataDir, keywordsFile))
	if err != nil {
		// Degrade to empty lists: everything classifies as low priority,
		// but the run goes on.
		log.Printf("[tracker] keywords unavailable, classifying everything low: %v", err)
	}

	db, err := store.Open(filepath.Join(env.DataDir, runsDBFile))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	state := tracker.NewState()
	hub := events.NewHub()

	pipe := &pipeline.Pipeline{
		Mail: pipeline.IMAPSource{
			Addr:     env.IMAPServer,
			Username: env.Address,
			Password: env.Password,
		},
		Enricher:   enrich.New(),
		Classifier: classify.Classifier{High: kw.HighPriority, Medium: kw.MediumPriority},
		Ledger:     ledger.New(filepath.Join(env.DataDir, ledgerFile)),
		Pacer:      pipeline.DefaultPacer(),
		State:      state,
	}

	// One run at a time, whether triggered by the schedule or /refresh.
	var runMu sync.Mutex
	runOnce := func(ctx context.Context) (pipeline.Result, error) {
		if !runMu.TryLock() {
			return pipeline.Result{}, httpapi.ErrBusy
		}
		defer runMu.Unlock()

		res, runErr := pipe.Run(ctx)

		rec := store.Run{
			StartedAt:  res.StartedAt,
			FinishedAt: res.FinishedAt,
			URLsFound:  res.URLsFound,
			JobsAdded:  res.JobsAdded,
		}
		if runErr != nil {
			rec.Error = runErr.Error()
			if rec.FinishedAt.IsZero() {
				rec.FinishedAt = time.Now()
			}
		}
		if _, err := store.InsertRun(context.Background(), db.Pool, rec); err != nil {
			log.Printf("[tracker] record run: %v", err)
		}

		if runErr == nil {
			for _, p := range res.Postings {
				hub.Publish("job_created", map[string]any{
					"url":      p.URL,
					"title":    p.Title,
					"company":  p.Company,
					"priority": int(p.Priority),
				})
			}
			hub.Publish("run_finished", map[string]any{
				"urlsFound": res.URLsFound,
				"jobsAdded": res.JobsAdded,
			})
		}
		return res, runErr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		res, err := runOnce(ctx)
		if err != nil {
			log.Fatalf("[tracker] run failed: %v", err)
		}
		log.Printf("[tracker] %d unique identifiers found, %d new postings added", res.URLsFound, res.JobsAdded)
		return
	}

	mux := httpapi.NewMux(httpapi.Deps{
		DB:          db.Pool,
		State:       state,
		Hub:         hub,
		RunPipeline: runOnce,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", env.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("[tracker] listening on http://%s", addr)

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	spec := os.Getenv("TRACKER_SCHEDULE")
	if spec == "" {
		spec = trigger.DefaultSpec
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return trigger.Run(gctx, spec, "tracker", runBudget, func(tctx context.Context) error {
			_, err := runOnce(tctx)
			return err
		})
	})
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}

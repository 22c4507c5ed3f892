package store

import (
	"context"
	"database/sql"
	"time"
)

// Run is one recorded pipeline invocation: its counters, its window, and
// whether it failed.
type Run struct {
	ID         int64     `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	URLsFound  int       `json:"urlsFound"`
	JobsAdded  int       `json:"jobsAdded"`
	Error      string    `json:"error"`
}

func InsertRun(ctx context.Context, db *sql.DB, r Run) (int64, error) {
	res, err := db.ExecContext(ctx, `
INSERT INTO runs(started_at, finished_at, urls_found, jobs_added, error)
VALUES(?,?,?,?,?);`,
		r.StartedAt.UTC().Format(time.RFC3339),
		r.FinishedAt.UTC().Format(time.RFC3339),
		r.URLsFound,
		r.JobsAdded,
		r.Error,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func ListRuns(ctx context.Context, db *sql.DB, limit int) ([]Run, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx, `
SELECT id, started_at, finished_at, urls_found, jobs_added, error
FROM runs
ORDER BY started_at DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.URLsFound, &r.JobsAdded, &r.Error); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Package runlog records import-run history in the import_log table.
package runlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ynm-safety/crm-import-cli/internal/db"
	"github.com/ynm-safety/crm-import-cli/internal/model"
)

// Entry is one row of import_log.
type Entry struct {
	ID          int64               `json:"id"`
	Source      string              `json:"source"`
	Status      string              `json:"status"`
	StartedAt   time.Time           `json:"started_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	Result      *model.ImportResult `json:"result,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// Log provides read/write access to the import_log table. Postgres only; the
// sqlite backend keeps no run history.
type Log struct {
	pool db.Pool
}

// New creates a Log backed by the given pool.
func New(pool db.Pool) *Log {
	return &Log{pool: pool}
}

// Start records the beginning of an import run and returns its id.
func (l *Log) Start(ctx context.Context, source string) (int64, error) {
	var id int64
	err := l.pool.QueryRow(ctx,
		`INSERT INTO import_log (source, status, started_at)
		 VALUES ($1, 'running', now()) RETURNING id`,
		source,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "runlog: start run for %s", source)
	}
	return id, nil
}

// Complete marks a run finished and stores its result counts. A run with
// soft errors still completes; the errors travel inside the result.
func (l *Log) Complete(ctx context.Context, runID int64, result *model.ImportResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "runlog: marshal result")
	}
	_, err = l.pool.Exec(ctx,
		`UPDATE import_log
		 SET status = 'complete', completed_at = now(), result = $1
		 WHERE id = $2`,
		resultJSON, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: complete run %d", runID)
	}
	return nil
}

// Fail marks a run as failed with an error message.
func (l *Log) Fail(ctx context.Context, runID int64, errMsg string) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE import_log
		 SET status = 'failed', completed_at = now(), error = $1
		 WHERE id = $2`,
		errMsg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: fail run %d", runID)
	}
	return nil
}

// List returns run entries ordered most recent first. limit <= 0 means 100.
func (l *Log) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.pool.Query(ctx,
		`SELECT id, source, status, started_at, completed_at, result, error
		 FROM import_log ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var completedAt *time.Time
		var resultJSON []byte
		var errStr *string
		if err := rows.Scan(&e.ID, &e.Source, &e.Status, &e.StartedAt, &completedAt, &resultJSON, &errStr); err != nil {
			return nil, eris.Wrap(err, "runlog: scan entry")
		}
		e.CompletedAt = completedAt
		if errStr != nil {
			e.Error = *errStr
		}
		if resultJSON != nil {
			e.Result = &model.ImportResult{}
			if err := json.Unmarshal(resultJSON, e.Result); err != nil {
				return nil, eris.Wrap(err, "runlog: unmarshal result")
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

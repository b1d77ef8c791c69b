package database

import (
	"database/sql"

	"github.com/google/uuid"
)

const runColumns = `id, started_at, finished_at, status, account_count, event_count,
	rejected_count, orphan_count, summary_count, export_path, summary_markdown`

// StartRun registers a new pipeline run and returns its id.
func (db *DB) StartRun() (string, error) {
	id := uuid.NewString()
	if _, err := db.conn.Exec("INSERT INTO runs (id, status) VALUES (?, ?)", id, RunRunning); err != nil {
		return "", err
	}
	return id, nil
}

// FinishRun stores the final counts and status of a run.
func (db *DB) FinishRun(run Run) error {
	_, err := db.conn.Exec(
		`UPDATE runs SET finished_at = datetime('now'), status = ?, account_count = ?, event_count = ?,
		rejected_count = ?, orphan_count = ?, summary_count = ?, export_path = ?, summary_markdown = ?
		WHERE id = ?`,
		run.Status, run.AccountCount, run.EventCount, run.RejectedCount, run.OrphanCount,
		run.SummaryCount, run.ExportPath, run.SummaryMarkdown, run.ID,
	)
	return err
}

// GetRun returns a run by id, or nil.
func (db *DB) GetRun(runID string) (*Run, error) {
	row := db.conn.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetLastRun returns the most recently completed run, or nil.
func (db *DB) GetLastRun() (*Run, error) {
	row := db.conn.QueryRow(`SELECT ` + runColumns + ` FROM runs WHERE status = 'completed'
		ORDER BY started_at DESC, rowid DESC LIMIT 1`)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetLatestRun returns the most recently started run whatever its status,
// or nil.
func (db *DB) GetLatestRun() (*Run, error) {
	row := db.conn.QueryRow(`SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetAllRuns returns every run, newest first.
func (db *DB) GetAllRuns() ([]Run, error) {
	rows, err := db.conn.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	if err := s.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status, &r.AccountCount, &r.EventCount,
		&r.RejectedCount, &r.OrphanCount, &r.SummaryCount, &r.ExportPath, &r.SummaryMarkdown); err != nil {
		return nil, err
	}
	return &r, nil
}

package database

import "fmt"

// InsertRejections records rejected source rows against a run.
func (db *DB) InsertRejections(runID string, rejections []Rejection) error {
	if len(rejections) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO rejected_rows (run_id, source, line, account_id, raw_value, reason)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rejections {
		if _, err := stmt.Exec(runID, r.Source, r.Line, r.AccountID, r.RawValue, r.Reason); err != nil {
			return fmt.Errorf("inserting rejection for %s line %d: %w", r.Source, r.Line, err)
		}
	}

	return tx.Commit()
}

// GetRejections returns the rejected rows of a run, accounts first, by line.
func (db *DB) GetRejections(runID string) ([]Rejection, error) {
	rows, err := db.conn.Query(
		`SELECT id, run_id, source, line, account_id, raw_value, reason FROM rejected_rows
		WHERE run_id = ? ORDER BY source, line`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rejection
	for rows.Next() {
		var r Rejection
		var accountID *string
		if err := rows.Scan(&r.ID, &r.RunID, &r.Source, &r.Line, &accountID, &r.RawValue, &r.Reason); err != nil {
			return nil, err
		}
		if accountID != nil {
			r.AccountID = *accountID
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

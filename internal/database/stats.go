package database

// GetStats returns aggregate counts over the staging tables.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM accounts", &s.Accounts},
		{"SELECT COUNT(*) FROM contact_events", &s.Events},
		{"SELECT COUNT(*) FROM contact_events WHERE normalized_channel IS NOT NULL", &s.ClassifiedEvents},
		{"SELECT COUNT(*) FROM account_summaries", &s.Summaries},
		{"SELECT COUNT(*) FROM account_summaries WHERE event_count = 0", &s.AccountsNoActivity},
		{"SELECT COUNT(*) FROM runs", &s.Runs},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	last, err := db.GetLastRun()
	if err != nil {
		return nil, err
	}
	if last != nil {
		s.LastRunID = last.ID
	}
	return s, nil
}

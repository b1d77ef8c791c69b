package database

import (
	"fmt"

	"github.com/TobiSchelling/CollectionsReport/internal/activity"
)

// ReloadStaging replaces the roster and contact events in one transaction.
// Summaries computed from the previous load are cleared with them, so the
// report never joins a new roster against stale results.
func (db *DB) ReloadStaging(accounts []Account, events []activity.ContactEvent) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"account_summaries", "contact_events", "accounts"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if err := insertAccounts(tx, accounts); err != nil {
		return err
	}
	if err := insertEvents(tx, events); err != nil {
		return err
	}

	return tx.Commit()
}

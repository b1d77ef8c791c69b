package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS accounts (
    account_id TEXT PRIMARY KEY,
    customer_name TEXT,
    document_id TEXT,
    portfolio TEXT,
    product TEXT,
    balance TEXT,
    days_past_due TEXT,
    assigned_agent TEXT,
    loaded_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS contact_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    seq INTEGER UNIQUE NOT NULL,
    account_id TEXT NOT NULL,
    event_date TEXT NOT NULL,
    channel TEXT,
    contact_type TEXT,
    outcome TEXT,
    actor TEXT,
    non_payment_reason TEXT,
    normalized_channel TEXT,
    normalized_contact_type TEXT,
    loaded_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT DEFAULT (datetime('now')),
    finished_at TEXT,
    status TEXT NOT NULL DEFAULT 'running' CHECK(status IN ('running', 'completed', 'failed')),
    account_count INTEGER DEFAULT 0,
    event_count INTEGER DEFAULT 0,
    rejected_count INTEGER DEFAULT 0,
    orphan_count INTEGER DEFAULT 0,
    summary_count INTEGER DEFAULT 0,
    export_path TEXT,
    summary_markdown TEXT
);

CREATE TABLE IF NOT EXISTS rejected_rows (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id),
    source TEXT NOT NULL CHECK(source IN ('accounts', 'events')),
    line INTEGER,
    account_id TEXT,
    raw_value TEXT,
    reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS account_summaries (
    account_id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES runs(id),
    rep_seq INTEGER,
    rep_date TEXT,
    rep_channel TEXT,
    rep_contact_type TEXT,
    rep_raw_channel TEXT,
    rep_raw_contact_type TEXT,
    rep_outcome TEXT,
    rep_actor TEXT,
    rep_non_payment_reason TEXT,
    total_phone INTEGER NOT NULL DEFAULT 0,
    total_field INTEGER NOT NULL DEFAULT 0,
    total_sms INTEGER NOT NULL DEFAULT 0,
    total_email INTEGER NOT NULL DEFAULT 0,
    total_ivr INTEGER NOT NULL DEFAULT 0,
    total_mail INTEGER NOT NULL DEFAULT 0,
    total_direct INTEGER NOT NULL DEFAULT 0,
    total_indirect INTEGER NOT NULL DEFAULT 0,
    total_no_contact INTEGER NOT NULL DEFAULT 0,
    total_dialer INTEGER NOT NULL DEFAULT 0,
    direct_contact INTEGER NOT NULL DEFAULT 0,
    indirect_contact INTEGER NOT NULL DEFAULT 0,
    no_contact INTEGER NOT NULL DEFAULT 0,
    dialer_only INTEGER NOT NULL DEFAULT 0,
    total_activities INTEGER NOT NULL DEFAULT 0,
    total_attempts INTEGER NOT NULL DEFAULT 0,
    total_promises INTEGER NOT NULL DEFAULT 0,
    event_count INTEGER NOT NULL DEFAULT 0,
    computed_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_contact_events_account ON contact_events(account_id);
CREATE INDEX IF NOT EXISTS idx_rejected_rows_run ON rejected_rows(run_id);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "account report view",
		Up: func(tx *sql.Tx) error {
			// Every roster account appears, summarized or not.
			_, err := tx.Exec(`
DROP VIEW IF EXISTS account_report;
CREATE VIEW IF NOT EXISTS account_report AS
SELECT
    a.rowid AS roster_order,
    a.account_id, a.customer_name, a.document_id, a.portfolio, a.product,
    a.balance, a.days_past_due, a.assigned_agent,
    s.account_id AS summary_account_id, s.run_id,
    s.rep_seq, s.rep_date, s.rep_channel, s.rep_contact_type,
    s.rep_raw_channel, s.rep_raw_contact_type, s.rep_outcome, s.rep_actor, s.rep_non_payment_reason,
    s.total_phone, s.total_field, s.total_sms, s.total_email, s.total_ivr, s.total_mail,
    s.total_direct, s.total_indirect, s.total_no_contact, s.total_dialer,
    s.direct_contact, s.indirect_contact, s.no_contact, s.dialer_only,
    s.total_activities, s.total_attempts, s.total_promises, s.event_count
FROM accounts a
LEFT JOIN account_summaries s ON s.account_id = a.account_id;
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}

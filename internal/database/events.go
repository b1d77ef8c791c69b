package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/TobiSchelling/CollectionsReport/internal/activity"
)

// DateLayout is the storage format of calendar dates.
const DateLayout = "2006-01-02"

const eventColumns = `id, seq, account_id, event_date, channel, contact_type, outcome, actor,
	non_payment_reason, normalized_channel, normalized_contact_type`

func insertEvents(tx *sql.Tx, events []activity.ContactEvent) error {
	stmt, err := tx.Prepare(`INSERT INTO contact_events
		(seq, account_id, event_date, channel, contact_type, outcome, actor, non_payment_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.Exec(ev.Seq, ev.AccountID, ev.EventDate.Format(DateLayout), ev.Channel,
			ev.ContactType, ev.Outcome, ev.Actor, ev.NonPaymentReason); err != nil {
			return fmt.Errorf("inserting event %d: %w", ev.Seq, err)
		}
	}
	return nil
}

// SetClassifications stores normalized channel and contact type for staged
// events, matched by Seq.
func (db *DB) SetClassifications(events []activity.ClassifiedEvent) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`UPDATE contact_events
		SET normalized_channel = ?, normalized_contact_type = ? WHERE seq = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.Exec(ev.NormalizedChannel.String(), ev.NormalizedContactType.String(), ev.Seq); err != nil {
			return fmt.Errorf("classifying event %d: %w", ev.Seq, err)
		}
	}

	return tx.Commit()
}

// GetEvents returns all staged events in Seq order.
func (db *DB) GetEvents() ([]StoredEvent, error) {
	return db.queryEvents(`SELECT ` + eventColumns + ` FROM contact_events ORDER BY seq`)
}

// GetEventsForAccount returns the staged events of one account in Seq order.
func (db *DB) GetEventsForAccount(accountID string) ([]StoredEvent, error) {
	return db.queryEvents(`SELECT `+eventColumns+` FROM contact_events WHERE account_id = ? ORDER BY seq`, accountID)
}

// GetOrphanedEvents returns staged events whose account is not in the roster.
func (db *DB) GetOrphanedEvents() ([]StoredEvent, error) {
	return db.queryEvents(`SELECT e.id, e.seq, e.account_id, e.event_date, e.channel, e.contact_type,
		e.outcome, e.actor, e.non_payment_reason, e.normalized_channel, e.normalized_contact_type
		FROM contact_events e LEFT JOIN accounts a ON a.account_id = e.account_id
		WHERE a.account_id IS NULL ORDER BY e.seq`)
}

// GetClassifiedEvents returns the classified events ready for summarizing.
func (db *DB) GetClassifiedEvents() ([]activity.ClassifiedEvent, error) {
	stored, err := db.queryEvents(`SELECT ` + eventColumns + ` FROM contact_events
		WHERE normalized_channel IS NOT NULL ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	events := make([]activity.ClassifiedEvent, len(stored))
	for i, s := range stored {
		events[i] = s.ClassifiedEvent
	}
	return events, nil
}

func (db *DB) queryEvents(query string, args ...any) ([]StoredEvent, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func scanEvent(s scanner) (StoredEvent, error) {
	var ev StoredEvent
	var date string
	var channel, contactType, outcome, actor, reason, normChannel, normType sql.NullString
	if err := s.Scan(&ev.ID, &ev.Seq, &ev.AccountID, &date, &channel, &contactType, &outcome, &actor,
		&reason, &normChannel, &normType); err != nil {
		return ev, err
	}

	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return ev, fmt.Errorf("event %d has invalid stored date %q: %w", ev.Seq, date, err)
	}
	ev.EventDate = d
	ev.Channel = channel.String
	ev.ContactType = contactType.String
	ev.Outcome = outcome.String
	ev.Actor = actor.String
	ev.NonPaymentReason = reason.String
	if normChannel.Valid && normType.Valid {
		ev.Classified = true
		ev.NormalizedChannel = activity.ParseChannelLabel(normChannel.String)
		ev.NormalizedContactType = activity.ParseContactTypeLabel(normType.String)
	}
	return ev, nil
}

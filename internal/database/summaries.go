package database

import (
	"database/sql"
	"fmt"

	"github.com/TobiSchelling/CollectionsReport/internal/summary"
)

// NewSummaryRecord flattens an account summary for storage.
func NewSummaryRecord(runID string, s summary.Summary) SummaryRecord {
	flags := s.Flags()
	rec := SummaryRecord{
		AccountID:       s.AccountID,
		TotalPhone:      s.Channels.Phone,
		TotalField:      s.Channels.Field,
		TotalSMS:        s.Channels.SMS,
		TotalEmail:      s.Channels.Email,
		TotalIVR:        s.Channels.IVR,
		TotalMail:       s.Channels.Mail,
		TotalDirect:     s.ContactTypes.Direct,
		TotalIndirect:   s.ContactTypes.Indirect,
		TotalNoContact:  s.ContactTypes.NoContact,
		TotalDialer:     s.ContactTypes.Dialer,
		DirectContact:   flags.DirectContact,
		IndirectContact: flags.IndirectContact,
		NoContact:       flags.NoContact,
		DialerOnly:      flags.DialerOnly,
		TotalActivities: s.TotalActivities,
		TotalAttempts:   s.TotalAttempts,
		TotalPromises:   s.TotalPromises,
		EventCount:      s.EventCount,
		RunID:           runID,
	}

	if rep := s.Representative; rep != nil {
		seq := rep.Seq
		date := rep.EventDate.Format(DateLayout)
		channel := rep.NormalizedChannel.String()
		contactType := rep.NormalizedContactType.String()
		rec.RepSeq = &seq
		rec.RepDate = &date
		rec.RepChannel = &channel
		rec.RepContactType = &contactType
		rec.RepRawChannel = strPtr(rep.Channel)
		rec.RepRawContactType = strPtr(rep.ContactType)
		rec.RepOutcome = strPtr(rep.Outcome)
		rec.RepActor = strPtr(rep.Actor)
		rec.RepNonPaymentReason = strPtr(rep.NonPaymentReason)
	}
	return rec
}

// ReplaceSummaries swaps the stored summaries for the given run's results.
func (db *DB) ReplaceSummaries(runID string, summaries []summary.Summary) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM account_summaries"); err != nil {
		return fmt.Errorf("clearing summaries: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO account_summaries (
		account_id, run_id, rep_seq, rep_date, rep_channel, rep_contact_type,
		rep_raw_channel, rep_raw_contact_type, rep_outcome, rep_actor, rep_non_payment_reason,
		total_phone, total_field, total_sms, total_email, total_ivr, total_mail,
		total_direct, total_indirect, total_no_contact, total_dialer,
		direct_contact, indirect_contact, no_contact, dialer_only,
		total_activities, total_attempts, total_promises, event_count
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range summaries {
		r := NewSummaryRecord(runID, s)
		if _, err := stmt.Exec(
			r.AccountID, r.RunID, r.RepSeq, r.RepDate, r.RepChannel, r.RepContactType,
			r.RepRawChannel, r.RepRawContactType, r.RepOutcome, r.RepActor, r.RepNonPaymentReason,
			r.TotalPhone, r.TotalField, r.TotalSMS, r.TotalEmail, r.TotalIVR, r.TotalMail,
			r.TotalDirect, r.TotalIndirect, r.TotalNoContact, r.TotalDialer,
			boolInt(r.DirectContact), boolInt(r.IndirectContact), boolInt(r.NoContact), boolInt(r.DialerOnly),
			r.TotalActivities, r.TotalAttempts, r.TotalPromises, r.EventCount,
		); err != nil {
			return fmt.Errorf("inserting summary for %s: %w", r.AccountID, err)
		}
	}

	return tx.Commit()
}

const summaryColumns = `account_id, run_id, rep_seq, rep_date, rep_channel, rep_contact_type,
	rep_raw_channel, rep_raw_contact_type, rep_outcome, rep_actor, rep_non_payment_reason,
	total_phone, total_field, total_sms, total_email, total_ivr, total_mail,
	total_direct, total_indirect, total_no_contact, total_dialer,
	direct_contact, indirect_contact, no_contact, dialer_only,
	total_activities, total_attempts, total_promises, event_count`

// GetSummary returns the stored summary for an account, or nil.
func (db *DB) GetSummary(accountID string) (*SummaryRecord, error) {
	row := db.conn.QueryRow(`SELECT `+summaryColumns+` FROM account_summaries WHERE account_id = ?`, accountID)
	var r SummaryRecord
	var runID sql.NullString
	var direct, indirect, noContact, dialer int
	err := row.Scan(
		&r.AccountID, &runID, &r.RepSeq, &r.RepDate, &r.RepChannel, &r.RepContactType,
		&r.RepRawChannel, &r.RepRawContactType, &r.RepOutcome, &r.RepActor, &r.RepNonPaymentReason,
		&r.TotalPhone, &r.TotalField, &r.TotalSMS, &r.TotalEmail, &r.TotalIVR, &r.TotalMail,
		&r.TotalDirect, &r.TotalIndirect, &r.TotalNoContact, &r.TotalDialer,
		&direct, &indirect, &noContact, &dialer,
		&r.TotalActivities, &r.TotalAttempts, &r.TotalPromises, &r.EventCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.RunID = runID.String
	r.DirectContact = direct != 0
	r.IndirectContact = indirect != 0
	r.NoContact = noContact != 0
	r.DialerOnly = dialer != 0
	return &r, nil
}

// GetReportRows returns every roster account left-joined with its summary,
// in roster order.
func (db *DB) GetReportRows() ([]ReportRow, error) {
	rows, err := db.conn.Query(`SELECT
		account_id, customer_name, document_id, portfolio, product,
		balance, days_past_due, assigned_agent, summary_account_id, ` + reportSummaryColumns + `
		FROM account_report ORDER BY roster_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReportRow
	for rows.Next() {
		row, err := scanReportRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

const reportSummaryColumns = `run_id, rep_seq, rep_date, rep_channel, rep_contact_type,
	rep_raw_channel, rep_raw_contact_type, rep_outcome, rep_actor, rep_non_payment_reason,
	total_phone, total_field, total_sms, total_email, total_ivr, total_mail,
	total_direct, total_indirect, total_no_contact, total_dialer,
	direct_contact, indirect_contact, no_contact, dialer_only,
	total_activities, total_attempts, total_promises, event_count`

func scanReportRow(rows *sql.Rows) (ReportRow, error) {
	var row ReportRow
	var name, doc, portfolio, product, balance, dpd, agent sql.NullString
	var summaryID, runID sql.NullString
	var r SummaryRecord
	var counts [13]sql.NullInt64
	var flags [4]sql.NullInt64
	var events sql.NullInt64

	err := rows.Scan(
		&row.AccountID, &name, &doc, &portfolio, &product, &balance, &dpd, &agent, &summaryID,
		&runID, &r.RepSeq, &r.RepDate, &r.RepChannel, &r.RepContactType,
		&r.RepRawChannel, &r.RepRawContactType, &r.RepOutcome, &r.RepActor, &r.RepNonPaymentReason,
		&counts[0], &counts[1], &counts[2], &counts[3], &counts[4], &counts[5],
		&counts[6], &counts[7], &counts[8], &counts[9],
		&flags[0], &flags[1], &flags[2], &flags[3],
		&counts[10], &counts[11], &counts[12], &events,
	)
	if err != nil {
		return row, err
	}
	row.CustomerName = name.String
	row.DocumentID = doc.String
	row.Portfolio = portfolio.String
	row.Product = product.String
	row.Balance = balance.String
	row.DaysPastDue = dpd.String
	row.AssignedAgent = agent.String

	if !summaryID.Valid {
		return row, nil
	}

	r.AccountID = summaryID.String
	r.RunID = runID.String
	r.TotalPhone = int(counts[0].Int64)
	r.TotalField = int(counts[1].Int64)
	r.TotalSMS = int(counts[2].Int64)
	r.TotalEmail = int(counts[3].Int64)
	r.TotalIVR = int(counts[4].Int64)
	r.TotalMail = int(counts[5].Int64)
	r.TotalDirect = int(counts[6].Int64)
	r.TotalIndirect = int(counts[7].Int64)
	r.TotalNoContact = int(counts[8].Int64)
	r.TotalDialer = int(counts[9].Int64)
	r.DirectContact = flags[0].Int64 != 0
	r.IndirectContact = flags[1].Int64 != 0
	r.NoContact = flags[2].Int64 != 0
	r.DialerOnly = flags[3].Int64 != 0
	r.TotalActivities = int(counts[10].Int64)
	r.TotalAttempts = int(counts[11].Int64)
	r.TotalPromises = int(counts[12].Int64)
	r.EventCount = int(events.Int64)
	row.Summary = &r
	return row, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

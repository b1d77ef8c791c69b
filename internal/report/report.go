// Package report lays out the wide per-account collections report and writes
// it as CSV, JSON, or a terminal table.
package report

import (
	"strconv"

	"github.com/TobiSchelling/CollectionsReport/internal/database"
)

// DefaultMissingValue is rendered in place of an absent best-contact field.
const DefaultMissingValue = "NO REGISTRA"

// Columns is the fixed column layout of the report.
var Columns = []string{
	"account_id", "customer_name", "document_id", "portfolio", "product",
	"balance", "days_past_due", "assigned_agent",
	"best_contact_date", "best_contact_channel", "best_contact_type",
	"best_raw_channel", "best_raw_contact_type", "best_outcome", "best_actor", "best_non_payment_reason",
	"total_phone", "total_field", "total_sms", "total_email", "total_ivr", "total_mail",
	"total_direct", "total_indirect", "total_no_contact", "total_dialer",
	"direct_contact", "indirect_contact", "no_contact", "dialer_only",
	"total_activities", "total_attempts", "total_promises",
}

// Record is one rendered report line. Flags are 1 or 0.
type Record struct {
	AccountID     string `json:"account_id"`
	CustomerName  string `json:"customer_name"`
	DocumentID    string `json:"document_id"`
	Portfolio     string `json:"portfolio"`
	Product       string `json:"product"`
	Balance       string `json:"balance"`
	DaysPastDue   string `json:"days_past_due"`
	AssignedAgent string `json:"assigned_agent"`

	BestContactDate      string `json:"best_contact_date"`
	BestContactChannel   string `json:"best_contact_channel"`
	BestContactType      string `json:"best_contact_type"`
	BestRawChannel       string `json:"best_raw_channel"`
	BestRawContactType   string `json:"best_raw_contact_type"`
	BestOutcome          string `json:"best_outcome"`
	BestActor            string `json:"best_actor"`
	BestNonPaymentReason string `json:"best_non_payment_reason"`

	TotalPhone     int `json:"total_phone"`
	TotalField     int `json:"total_field"`
	TotalSMS       int `json:"total_sms"`
	TotalEmail     int `json:"total_email"`
	TotalIVR       int `json:"total_ivr"`
	TotalMail      int `json:"total_mail"`
	TotalDirect    int `json:"total_direct"`
	TotalIndirect  int `json:"total_indirect"`
	TotalNoContact int `json:"total_no_contact"`
	TotalDialer    int `json:"total_dialer"`

	DirectContact   int `json:"direct_contact"`
	IndirectContact int `json:"indirect_contact"`
	NoContact       int `json:"no_contact"`
	DialerOnly      int `json:"dialer_only"`

	TotalActivities int `json:"total_activities"`
	TotalAttempts   int `json:"total_attempts"`
	TotalPromises   int `json:"total_promises"`
}

// Values returns the record's fields in Columns order.
func (r Record) Values() []string {
	itoa := strconv.Itoa
	return []string{
		r.AccountID, r.CustomerName, r.DocumentID, r.Portfolio, r.Product,
		r.Balance, r.DaysPastDue, r.AssignedAgent,
		r.BestContactDate, r.BestContactChannel, r.BestContactType,
		r.BestRawChannel, r.BestRawContactType, r.BestOutcome, r.BestActor, r.BestNonPaymentReason,
		itoa(r.TotalPhone), itoa(r.TotalField), itoa(r.TotalSMS), itoa(r.TotalEmail), itoa(r.TotalIVR), itoa(r.TotalMail),
		itoa(r.TotalDirect), itoa(r.TotalIndirect), itoa(r.TotalNoContact), itoa(r.TotalDialer),
		itoa(r.DirectContact), itoa(r.IndirectContact), itoa(r.NoContact), itoa(r.DialerOnly),
		itoa(r.TotalActivities), itoa(r.TotalAttempts), itoa(r.TotalPromises),
	}
}

// Contact returns the contact-quality label implied by the record's flags.
func (r Record) Contact() string {
	switch {
	case r.DirectContact == 1:
		return "direct"
	case r.IndirectContact == 1:
		return "indirect"
	case r.NoContact == 1:
		return "no_contact"
	case r.DialerOnly == 1:
		return "dialer_only"
	}
	return "no_activity"
}

// Builder turns joined report rows into records.
type Builder struct {
	missing string
}

// NewBuilder creates a builder. An empty missing value falls back to
// DefaultMissingValue.
func NewBuilder(missing string) *Builder {
	if missing == "" {
		missing = DefaultMissingValue
	}
	return &Builder{missing: missing}
}

// Build renders every row, keeping roster order. A row with no stored summary
// renders like an account with no activity.
func (b *Builder) Build(rows []database.ReportRow) []Record {
	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = b.Record(row)
	}
	return records
}

// Record renders a single row.
func (b *Builder) Record(row database.ReportRow) Record {
	rec := Record{
		AccountID:     row.AccountID,
		CustomerName:  row.CustomerName,
		DocumentID:    row.DocumentID,
		Portfolio:     row.Portfolio,
		Product:       row.Product,
		Balance:       row.Balance,
		DaysPastDue:   row.DaysPastDue,
		AssignedAgent: row.AssignedAgent,
	}

	s := row.Summary
	if s == nil {
		s = &database.SummaryRecord{}
	}
	rec.BestContactDate = b.or(s.RepDate)
	rec.BestContactChannel = b.or(s.RepChannel)
	rec.BestContactType = b.or(s.RepContactType)
	rec.BestRawChannel = b.or(s.RepRawChannel)
	rec.BestRawContactType = b.or(s.RepRawContactType)
	rec.BestOutcome = b.or(s.RepOutcome)
	rec.BestActor = b.or(s.RepActor)
	rec.BestNonPaymentReason = b.or(s.RepNonPaymentReason)

	rec.TotalPhone = s.TotalPhone
	rec.TotalField = s.TotalField
	rec.TotalSMS = s.TotalSMS
	rec.TotalEmail = s.TotalEmail
	rec.TotalIVR = s.TotalIVR
	rec.TotalMail = s.TotalMail
	rec.TotalDirect = s.TotalDirect
	rec.TotalIndirect = s.TotalIndirect
	rec.TotalNoContact = s.TotalNoContact
	rec.TotalDialer = s.TotalDialer
	rec.DirectContact = flag(s.DirectContact)
	rec.IndirectContact = flag(s.IndirectContact)
	rec.NoContact = flag(s.NoContact)
	rec.DialerOnly = flag(s.DialerOnly)
	rec.TotalActivities = s.TotalActivities
	rec.TotalAttempts = s.TotalAttempts
	rec.TotalPromises = s.TotalPromises
	return rec
}

func (b *Builder) or(v *string) string {
	if v == nil || *v == "" {
		return b.missing
	}
	return *v
}

func flag(v bool) int {
	if v {
		return 1
	}
	return 0
}

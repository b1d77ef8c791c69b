package database

import "github.com/TobiSchelling/CollectionsReport/internal/activity"

// Account is one row of the account roster. Metadata is kept as source text.
type Account struct {
	AccountID     string `json:"account_id"`
	CustomerName  string `json:"customer_name"`
	DocumentID    string `json:"document_id"`
	Portfolio     string `json:"portfolio"`
	Product       string `json:"product"`
	Balance       string `json:"balance"`
	DaysPastDue   string `json:"days_past_due"`
	AssignedAgent string `json:"assigned_agent"`
}

// StoredEvent is a staged contact event. Classified is false until the
// classify step has written normalized values.
type StoredEvent struct {
	ID         int64
	Classified bool
	activity.ClassifiedEvent
}

// Rejection records a source row excluded from the load.
type Rejection struct {
	ID        int64
	RunID     string
	Source    string // "accounts" or "events"
	Line      int
	AccountID string
	RawValue  *string
	Reason    string
}

// Rejection sources.
const (
	SourceAccounts = "accounts"
	SourceEvents   = "events"
)

// SummaryRecord is the persisted form of an account summary.
type SummaryRecord struct {
	AccountID           string
	RepSeq              *int64
	RepDate             *string
	RepChannel          *string
	RepContactType      *string
	RepRawChannel       *string
	RepRawContactType   *string
	RepOutcome          *string
	RepActor            *string
	RepNonPaymentReason *string
	TotalPhone          int
	TotalField          int
	TotalSMS            int
	TotalEmail          int
	TotalIVR            int
	TotalMail           int
	TotalDirect         int
	TotalIndirect       int
	TotalNoContact      int
	TotalDialer         int
	DirectContact       bool
	IndirectContact     bool
	NoContact           bool
	DialerOnly          bool
	TotalActivities     int
	TotalAttempts       int
	TotalPromises       int
	EventCount          int
	RunID               string
}

// ReportRow is one roster account left-joined with its summary. Summary is
// nil when no summary has been computed for the account.
type ReportRow struct {
	Account
	Summary *SummaryRecord
}

// Run holds metadata about a pipeline run.
type Run struct {
	ID              string
	StartedAt       string
	FinishedAt      *string
	Status          string
	AccountCount    int
	EventCount      int
	RejectedCount   int
	OrphanCount     int
	SummaryCount    int
	ExportPath      *string
	SummaryMarkdown *string
}

// Run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Stats contains aggregate database statistics.
type Stats struct {
	Accounts           int
	Events             int
	ClassifiedEvents   int
	Summaries          int
	AccountsNoActivity int
	Runs               int
	LastRunID          string
}

package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/TobiSchelling/CollectionsReport/internal/activity"
	"github.com/TobiSchelling/CollectionsReport/internal/database"
)

var accountColumns = map[string][]string{
	"account_id":     {"account_id", "account", "account_number"},
	"customer_name":  {"customer_name", "customer", "name"},
	"document_id":    {"document_id", "document", "national_id"},
	"portfolio":      {"portfolio"},
	"product":        {"product"},
	"balance":        {"balance", "outstanding_balance"},
	"days_past_due":  {"days_past_due", "dpd"},
	"assigned_agent": {"assigned_agent", "agent"},
}

var eventColumns = map[string][]string{
	"account_id":         {"account_id", "account", "account_number"},
	"event_date":         {"event_date", "contact_date", "date"},
	"channel":            {"channel"},
	"contact_type":       {"contact_type", "type"},
	"outcome":            {"outcome", "result"},
	"actor":              {"actor", "user", "agent"},
	"non_payment_reason": {"non_payment_reason", "reason"},
}

var (
	requiredAccountColumns = []string{"account_id"}
	requiredEventColumns   = []string{"account_id", "event_date", "channel", "contact_type"}
)

// Reader parses the roster and contact-event CSV exports.
type Reader struct {
	dateLayout string
	verbose    bool
}

// NewReader creates a CSV reader. An empty dateLayout means DD/MM/YYYY.
// When verbose is set every rejected row is logged.
func NewReader(dateLayout string, verbose bool) *Reader {
	if dateLayout == "" {
		dateLayout = activity.SourceDateLayout
	}
	return &Reader{dateLayout: dateLayout, verbose: verbose}
}

// AccountsResult is the outcome of reading a roster export.
type AccountsResult struct {
	Accounts   []database.Account
	Rejections []database.Rejection
}

// EventsResult is the outcome of reading a contact-event export.
type EventsResult struct {
	Events     []activity.ContactEvent
	Rejections []database.Rejection
}

// ReadAccountsFile opens path and reads it with ReadAccounts.
func (r *Reader) ReadAccountsFile(path string) (*AccountsResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening accounts file: %w", err)
	}
	defer f.Close()
	return r.ReadAccounts(f)
}

// ReadEventsFile opens path and reads it with ReadEvents.
func (r *Reader) ReadEventsFile(path string) (*EventsResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening events file: %w", err)
	}
	defer f.Close()
	return r.ReadEvents(f)
}

// ReadAccounts reads the account roster. Rows with a blank account id and
// repeated account ids are rejected; the first occurrence of an id wins.
func (r *Reader) ReadAccounts(in io.Reader) (*AccountsResult, error) {
	res := &AccountsResult{}
	seen := make(map[string]int)

	err := r.each(in, accountColumns, requiredAccountColumns, database.SourceAccounts, &res.Rejections,
		func(line int, row rowValues) {
			id := row.get("account_id")
			if id == "" {
				res.Rejections = append(res.Rejections, r.reject(database.SourceAccounts, line, "", nil, "blank account_id"))
				return
			}
			if first, dup := seen[id]; dup {
				res.Rejections = append(res.Rejections, r.reject(database.SourceAccounts, line, id, nil,
					fmt.Sprintf("duplicate account_id (first seen on line %d)", first)))
				return
			}
			seen[id] = line
			res.Accounts = append(res.Accounts, database.Account{
				AccountID:     id,
				CustomerName:  row.get("customer_name"),
				DocumentID:    row.get("document_id"),
				Portfolio:     row.get("portfolio"),
				Product:       row.get("product"),
				Balance:       row.get("balance"),
				DaysPastDue:   row.get("days_past_due"),
				AssignedAgent: row.get("assigned_agent"),
			})
		})
	if err != nil {
		return nil, err
	}

	log.Printf("Read %d accounts (%d rejected)", len(res.Accounts), len(res.Rejections))
	return res, nil
}

// ReadEvents reads contact events. Rows with a blank account id or a date that
// does not parse are rejected, never coerced. Seq numbers follow data-row order.
func (r *Reader) ReadEvents(in io.Reader) (*EventsResult, error) {
	res := &EventsResult{}
	var seq int64

	err := r.each(in, eventColumns, requiredEventColumns, database.SourceEvents, &res.Rejections,
		func(line int, row rowValues) {
			seq++
			id := row.get("account_id")
			if id == "" {
				res.Rejections = append(res.Rejections, r.reject(database.SourceEvents, line, "", nil, "blank account_id"))
				return
			}
			raw := row.get("event_date")
			date, err := activity.ParseDate(raw, r.dateLayout)
			if err != nil {
				var de *activity.DateError
				reason := err.Error()
				if errors.As(err, &de) {
					reason = "malformed event_date: " + de.Reason
				}
				res.Rejections = append(res.Rejections, r.reject(database.SourceEvents, line, id, &raw, reason))
				return
			}
			res.Events = append(res.Events, activity.ContactEvent{
				Seq:              seq,
				AccountID:        id,
				EventDate:        date,
				Channel:          row.get("channel"),
				ContactType:      row.get("contact_type"),
				Outcome:          row.get("outcome"),
				Actor:            row.get("actor"),
				NonPaymentReason: row.get("non_payment_reason"),
			})
		})
	if err != nil {
		return nil, err
	}

	log.Printf("Read %d contact events (%d rejected)", len(res.Events), len(res.Rejections))
	return res, nil
}

type rowValues struct {
	fields []string
	index  map[string]int
}

func (rv rowValues) get(name string) string {
	i, ok := rv.index[name]
	if !ok || i >= len(rv.fields) {
		return ""
	}
	return strings.TrimSpace(rv.fields[i])
}

// each reads the header, maps it onto canonical column names and calls fn for
// every data row. Unparseable CSV rows become rejections.
func (r *Reader) each(in io.Reader, columns map[string][]string, required []string, source string,
	rejections *[]database.Rejection, fn func(line int, row rowValues)) error {
	cr := csv.NewReader(stripBOM(in))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("reading %s header: empty file", source)
		}
		return fmt.Errorf("reading %s header: %w", source, err)
	}

	index := MapColumns(header, columns)
	var missing []string
	for _, name := range required {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s header is missing required columns %v (got %v)", source, missing, header)
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				*rejections = append(*rejections, r.reject(source, pe.StartLine, "", nil, pe.Err.Error()))
				continue
			}
			return fmt.Errorf("reading %s: %w", source, err)
		}
		line, _ := cr.FieldPos(0)
		fn(line, rowValues{fields: record, index: index})
	}
}

func (r *Reader) reject(source string, line int, accountID string, raw *string, reason string) database.Rejection {
	if r.verbose {
		log.Printf("Rejected %s line %d (account %q): %s", source, line, accountID, reason)
	}
	return database.Rejection{Source: source, Line: line, AccountID: accountID, RawValue: raw, Reason: reason}
}

// MapColumns maps canonical column names to header positions. Header names are
// compared case-insensitively after trimming; the first alias found wins.
func MapColumns(header []string, columns map[string][]string) map[string]int {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		if _, dup := positions[key]; !dup {
			positions[key] = i
		}
	}

	index := make(map[string]int, len(columns))
	for name, aliases := range columns {
		for _, alias := range aliases {
			if i, ok := positions[alias]; ok {
				index[name] = i
				break
			}
		}
	}
	return index
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		br.Discard(3)
	}
	return br
}

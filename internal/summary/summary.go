package summary

import (
	"cmp"
	"slices"
	"strings"

	"github.com/TobiSchelling/CollectionsReport/internal/activity"
)

// DefaultPromiseOutcome is the outcome value that marks a payment promise.
const DefaultPromiseOutcome = "PAYMENT_PROMISE"

// ContactQuality is the best contact level reached on an account.
type ContactQuality int

const (
	// QualityNone means no countable activity: zero events, or only
	// unclassified/email-type events.
	QualityNone ContactQuality = iota
	QualityDirect
	QualityIndirect
	QualityNoContact
	QualityDialerOnly
)

func (q ContactQuality) String() string {
	switch q {
	case QualityDirect:
		return "direct_contact"
	case QualityIndirect:
		return "indirect_contact"
	case QualityNoContact:
		return "no_contact"
	case QualityDialerOnly:
		return "dialer_only"
	}
	return "no_activity"
}

func (q ContactQuality) MarshalText() ([]byte, error) { return []byte(q.String()), nil }

// ChannelCounts holds per-channel event counts. Not-registered channels are
// never counted here.
type ChannelCounts struct {
	Phone int `json:"phone"`
	Field int `json:"field"`
	SMS   int `json:"sms"`
	Email int `json:"email"`
	IVR   int `json:"ivr"`
	Mail  int `json:"mail"`
}

// Total is the sum of the six channel counters.
func (c ChannelCounts) Total() int {
	return c.Phone + c.Field + c.SMS + c.Email + c.IVR + c.Mail
}

// ContactTypeCounts holds per-contact-type event counts.
type ContactTypeCounts struct {
	Direct    int `json:"direct"`
	Indirect  int `json:"indirect"`
	NoContact int `json:"no_contact"`
	Dialer    int `json:"dialer"`
}

// Attempts is direct + indirect + no-contact. Dialer and unclassified events
// are not attempts.
func (c ContactTypeCounts) Attempts() int {
	return c.Direct + c.Indirect + c.NoContact
}

// Flags is the boolean rendering of a ContactQuality. At most one is true.
type Flags struct {
	DirectContact   bool `json:"direct_contact"`
	IndirectContact bool `json:"indirect_contact"`
	NoContact       bool `json:"no_contact"`
	DialerOnly      bool `json:"dialer_only"`
}

// Summary is the per-account rollup. The zero value (apart from AccountID) is
// the summary of an account with no events.
type Summary struct {
	AccountID string `json:"account_id"`
	// Representative is nil when the account has no events.
	Representative  *activity.ClassifiedEvent `json:"representative,omitempty"`
	Channels        ChannelCounts             `json:"channels"`
	ContactTypes    ContactTypeCounts         `json:"contact_types"`
	Quality         ContactQuality            `json:"quality"`
	TotalActivities int                       `json:"total_activities"`
	TotalAttempts   int                       `json:"total_attempts"`
	TotalPromises   int                       `json:"total_promises"`
	EventCount      int                       `json:"event_count"`
}

// Flags returns the mutually exclusive quality flags.
func (s Summary) Flags() Flags {
	return Flags{
		DirectContact:   s.Quality == QualityDirect,
		IndirectContact: s.Quality == QualityIndirect,
		NoContact:       s.Quality == QualityNoContact,
		DialerOnly:      s.Quality == QualityDialerOnly,
	}
}

// Summarizer folds an account's classified events into a Summary.
type Summarizer struct {
	promiseOutcome string
}

// NewSummarizer creates a summarizer. An empty promiseOutcome falls back to
// DefaultPromiseOutcome.
func NewSummarizer(promiseOutcome string) *Summarizer {
	if promiseOutcome == "" {
		promiseOutcome = DefaultPromiseOutcome
	}
	return &Summarizer{promiseOutcome: promiseOutcome}
}

// Summarize builds the summary for one account. events may be empty and in any
// order; the slice is not modified.
func (s *Summarizer) Summarize(accountID string, events []activity.ClassifiedEvent) Summary {
	sum := Summary{AccountID: accountID, EventCount: len(events)}
	if len(events) == 0 {
		return sum
	}

	for _, ev := range events {
		switch ev.NormalizedChannel {
		case activity.ChannelPhone:
			sum.Channels.Phone++
		case activity.ChannelField:
			sum.Channels.Field++
		case activity.ChannelSMS:
			sum.Channels.SMS++
		case activity.ChannelEmail:
			sum.Channels.Email++
		case activity.ChannelIVR:
			sum.Channels.IVR++
		case activity.ChannelMail:
			sum.Channels.Mail++
		}

		switch ev.NormalizedContactType {
		case activity.ContactDirect:
			sum.ContactTypes.Direct++
		case activity.ContactIndirect:
			sum.ContactTypes.Indirect++
		case activity.ContactNoContact:
			sum.ContactTypes.NoContact++
		case activity.ContactDialer:
			sum.ContactTypes.Dialer++
		}

		if ev.Outcome == s.promiseOutcome {
			sum.TotalPromises++
		}
	}

	sum.TotalActivities = sum.Channels.Total()
	sum.TotalAttempts = sum.ContactTypes.Attempts()
	sum.Quality = quality(sum.ContactTypes)

	rep := Rank(events)[0]
	sum.Representative = &rep
	return sum
}

func quality(c ContactTypeCounts) ContactQuality {
	switch {
	case c.Direct > 0:
		return QualityDirect
	case c.Indirect > 0:
		return QualityIndirect
	case c.NoContact > 0:
		return QualityNoContact
	case c.Dialer > 0:
		return QualityDialerOnly
	}
	return QualityNone
}

// Rank returns a sorted copy of events, most representative first: channel
// rank, then contact-type rank, then most recent date, then lowest Seq. Events
// that still tie are ordered by their raw fields, so the result does not depend
// on input order even when Seq is zero or repeated.
func Rank(events []activity.ClassifiedEvent) []activity.ClassifiedEvent {
	ranked := slices.Clone(events)
	slices.SortStableFunc(ranked, compareEvents)
	return ranked
}

func compareEvents(a, b activity.ClassifiedEvent) int {
	if c := cmp.Compare(a.NormalizedChannel, b.NormalizedChannel); c != 0 {
		return c
	}
	if c := cmp.Compare(a.NormalizedContactType, b.NormalizedContactType); c != 0 {
		return c
	}
	if c := b.EventDate.Compare(a.EventDate); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Seq, b.Seq); c != 0 {
		return c
	}
	for _, f := range [][2]string{
		{a.AccountID, b.AccountID},
		{a.Channel, b.Channel},
		{a.ContactType, b.ContactType},
		{a.Outcome, b.Outcome},
		{a.Actor, b.Actor},
		{a.NonPaymentReason, b.NonPaymentReason},
	} {
		if c := strings.Compare(f[0], f[1]); c != 0 {
			return c
		}
	}
	return 0
}

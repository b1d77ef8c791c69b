package activity

import "time"

// DefaultDialerActor is the actor value recorded by the automated dialer.
const DefaultDialerActor = "AUTO_DIALER"

// ContactEvent is one recorded outreach attempt against an account.
type ContactEvent struct {
	// Seq is the ingestion order of the event within its load (1-based).
	Seq              int64
	AccountID        string
	EventDate        time.Time
	Channel          string
	ContactType      string
	Outcome          string
	Actor            string
	NonPaymentReason string
}

// ClassifiedEvent is a ContactEvent with its normalized channel and contact type.
type ClassifiedEvent struct {
	ContactEvent
	NormalizedChannel     Channel
	NormalizedContactType ContactType
}

// Classifier maps raw events onto the fixed channel and contact-type categories.
type Classifier struct {
	dialerActor string
}

// NewClassifier creates a classifier. An empty dialerActor falls back to DefaultDialerActor.
func NewClassifier(dialerActor string) *Classifier {
	if dialerActor == "" {
		dialerActor = DefaultDialerActor
	}
	return &Classifier{dialerActor: dialerActor}
}

// Classify normalizes a single event. It never fails: unknown values land in
// ChannelNotRegistered / ContactUnclassified.
func (c *Classifier) Classify(ev ContactEvent) ClassifiedEvent {
	return ClassifiedEvent{
		ContactEvent:          ev,
		NormalizedChannel:     ClassifyChannel(ev.Channel),
		NormalizedContactType: c.classifyContactType(ev.ContactType, ev.Actor),
	}
}

// ClassifyAll classifies events in order.
func (c *Classifier) ClassifyAll(events []ContactEvent) []ClassifiedEvent {
	out := make([]ClassifiedEvent, len(events))
	for i, ev := range events {
		out[i] = c.Classify(ev)
	}
	return out
}

func (c *Classifier) classifyContactType(raw, actor string) ContactType {
	switch raw {
	case "PRIMARY":
		return ContactDirect
	case "THIRD_PARTY", "FAMILY", "RELATIVE":
		return ContactIndirect
	case "NO_CONTACT":
		if actor == c.dialerActor {
			return ContactDialer
		}
		return ContactNoContact
	case "EMAIL":
		return ContactEmail
	}
	return ContactUnclassified
}

// ClassifyChannel maps a raw channel value onto its category.
func ClassifyChannel(raw string) Channel {
	switch raw {
	case "PHONE":
		return ChannelPhone
	case "AGENT", "EMAIL":
		return ChannelEmail
	case "SMS":
		return ChannelSMS
	case "IVR":
		return ChannelIVR
	case "FIELD":
		return ChannelField
	case "MAIL", "LETTER":
		return ChannelMail
	}
	return ChannelNotRegistered
}

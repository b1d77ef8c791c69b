package activity

import "fmt"

// Channel is the normalized medium of a contact attempt. The declaration order
// is the ranking order used to pick an account's representative contact.
type Channel int

const (
	ChannelPhone Channel = iota
	ChannelField
	ChannelSMS
	ChannelEmail
	ChannelIVR
	ChannelMail
	ChannelNotRegistered
)

// Channels lists every channel category in ranking order.
var Channels = []Channel{
	ChannelPhone, ChannelField, ChannelSMS, ChannelEmail, ChannelIVR, ChannelMail, ChannelNotRegistered,
}

var channelLabels = map[Channel]string{
	ChannelPhone:         "phone",
	ChannelField:         "field",
	ChannelSMS:           "sms",
	ChannelEmail:         "email",
	ChannelIVR:           "ivr",
	ChannelMail:          "mail",
	ChannelNotRegistered: "not_registered",
}

func (c Channel) String() string {
	if l, ok := channelLabels[c]; ok {
		return l
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

func (c Channel) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// ParseChannelLabel is the inverse of Channel.String. Unknown labels map to
// ChannelNotRegistered.
func ParseChannelLabel(label string) Channel {
	for c, l := range channelLabels {
		if l == label {
			return c
		}
	}
	return ChannelNotRegistered
}

// ContactType is the normalized "who was reached" category of an attempt.
// The declaration order is the ranking order after channel.
type ContactType int

const (
	ContactDirect ContactType = iota
	ContactIndirect
	ContactNoContact
	ContactDialer
	ContactEmail
	ContactUnclassified
)

// ContactTypes lists every contact-type category in ranking order.
var ContactTypes = []ContactType{
	ContactDirect, ContactIndirect, ContactNoContact, ContactDialer, ContactEmail, ContactUnclassified,
}

var contactTypeLabels = map[ContactType]string{
	ContactDirect:       "direct",
	ContactIndirect:     "indirect",
	ContactNoContact:    "no_contact",
	ContactDialer:       "dialer",
	ContactEmail:        "email",
	ContactUnclassified: "unclassified",
}

func (t ContactType) String() string {
	if l, ok := contactTypeLabels[t]; ok {
		return l
	}
	return fmt.Sprintf("ContactType(%d)", int(t))
}

func (t ContactType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// ParseContactTypeLabel is the inverse of ContactType.String. Unknown labels
// map to ContactUnclassified.
func ParseContactTypeLabel(label string) ContactType {
	for t, l := range contactTypeLabels {
		if l == label {
			return t
		}
	}
	return ContactUnclassified
}

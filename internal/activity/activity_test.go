package activity

import (
	"errors"
	"testing"
	"time"
)

func TestClassifyChannel(t *testing.T) {
	tests := []struct {
		raw  string
		want Channel
	}{
		{"PHONE", ChannelPhone},
		{"AGENT", ChannelEmail},
		{"EMAIL", ChannelEmail},
		{"SMS", ChannelSMS},
		{"IVR", ChannelIVR},
		{"FIELD", ChannelField},
		{"MAIL", ChannelMail},
		{"LETTER", ChannelMail},
		{"phone", ChannelNotRegistered},
		{"WHATSAPP", ChannelNotRegistered},
		{"", ChannelNotRegistered},
	}
	for _, tt := range tests {
		if got := ClassifyChannel(tt.raw); got != tt.want {
			t.Errorf("ClassifyChannel(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestClassifyContactType(t *testing.T) {
	c := NewClassifier("")
	tests := []struct {
		name  string
		raw   string
		actor string
		want  ContactType
	}{
		{"primary", "PRIMARY", "jdoe", ContactDirect},
		{"primary by dialer stays direct", "PRIMARY", DefaultDialerActor, ContactDirect},
		{"third party", "THIRD_PARTY", "jdoe", ContactIndirect},
		{"family", "FAMILY", "jdoe", ContactIndirect},
		{"relative", "RELATIVE", "jdoe", ContactIndirect},
		{"dialer no contact", "NO_CONTACT", DefaultDialerActor, ContactDialer},
		{"agent no contact", "NO_CONTACT", "jdoe", ContactNoContact},
		{"email", "EMAIL", "jdoe", ContactEmail},
		{"unknown", "VOICEMAIL", "jdoe", ContactUnclassified},
		{"lowercase", "primary", "jdoe", ContactUnclassified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(ContactEvent{ContactType: tt.raw, Actor: tt.actor}).NormalizedContactType
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifierCustomDialerActor(t *testing.T) {
	c := NewClassifier("ROBOT")
	ev := c.Classify(ContactEvent{ContactType: "NO_CONTACT", Actor: DefaultDialerActor})
	if ev.NormalizedContactType != ContactNoContact {
		t.Errorf("expected no_contact for non-configured actor, got %s", ev.NormalizedContactType)
	}
	ev = c.Classify(ContactEvent{ContactType: "NO_CONTACT", Actor: "ROBOT"})
	if ev.NormalizedContactType != ContactDialer {
		t.Errorf("expected dialer, got %s", ev.NormalizedContactType)
	}
}

func TestClassifyKeepsSourceFields(t *testing.T) {
	c := NewClassifier("")
	src := ContactEvent{Seq: 7, AccountID: "A1", Channel: "SMS", ContactType: "EMAIL", Outcome: "NO_ANSWER"}
	got := c.Classify(src)
	if got.ContactEvent != src {
		t.Errorf("source event changed: %+v", got.ContactEvent)
	}
	if got.NormalizedChannel != ChannelSMS || got.NormalizedContactType != ContactEmail {
		t.Errorf("unexpected classification %s/%s", got.NormalizedChannel, got.NormalizedContactType)
	}

	all := c.ClassifyAll([]ContactEvent{src, {Channel: "FAX"}})
	if len(all) != 2 || all[1].NormalizedChannel != ChannelNotRegistered {
		t.Errorf("unexpected ClassifyAll result: %+v", all)
	}
}

func TestLabelRoundTrip(t *testing.T) {
	for _, ch := range Channels {
		if got := ParseChannelLabel(ch.String()); got != ch {
			t.Errorf("channel %s round-tripped to %s", ch, got)
		}
	}
	for _, ct := range ContactTypes {
		if got := ParseContactTypeLabel(ct.String()); got != ct {
			t.Errorf("contact type %s round-tripped to %s", ct, got)
		}
	}
	if ParseChannelLabel("bogus") != ChannelNotRegistered {
		t.Error("expected unknown channel label to map to not_registered")
	}
	if ParseContactTypeLabel("bogus") != ContactUnclassified {
		t.Error("expected unknown contact type label to map to unclassified")
	}
}

func TestRankingOrder(t *testing.T) {
	for i := 1; i < len(Channels); i++ {
		if Channels[i-1] >= Channels[i] {
			t.Errorf("channel %s should rank before %s", Channels[i-1], Channels[i])
		}
	}
	if !(ContactDirect < ContactIndirect && ContactIndirect < ContactNoContact &&
		ContactNoContact < ContactDialer && ContactDialer < ContactEmail && ContactEmail < ContactUnclassified) {
		t.Error("contact type ranking order broken")
	}
}

func TestParseEventDate(t *testing.T) {
	d, err := ParseEventDate("15/02/2026")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Errorf("expected %s, got %s", want, d)
	}

	d, err = ParseEventDate(" 29/02/2024 ")
	if err != nil {
		t.Fatalf("leap day should parse: %v", err)
	}
	if d.Day() != 29 {
		t.Errorf("expected day 29, got %d", d.Day())
	}
}

func TestParseEventDateMalformed(t *testing.T) {
	bad := []string{
		"",
		"2026-02-15",
		"1/2/2026",
		"15/02/26",
		"aa/02/2026",
		"32/01/2026",
		"29/02/2026",
		"15/13/2026",
		"00/01/2026",
		"15-02-2026",
	}
	for _, text := range bad {
		_, err := ParseEventDate(text)
		if err == nil {
			t.Errorf("expected error for %q", text)
			continue
		}
		if !errors.Is(err, ErrMalformedDate) {
			t.Errorf("expected ErrMalformedDate for %q, got %v", text, err)
		}
		var de *DateError
		if !errors.As(err, &de) || de.Reason == "" {
			t.Errorf("expected DateError with reason for %q, got %v", text, err)
		}
	}
}

func TestParseDateCustomLayout(t *testing.T) {
	d, err := ParseDate("2026-02-15", "2006-01-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Month() != time.February {
		t.Errorf("expected February, got %s", d.Month())
	}
}

func TestFixedWidthLayout(t *testing.T) {
	for _, layout := range []string{SourceDateLayout, "2006-01-02", "20060102", "02-Jan-2006"} {
		if !FixedWidthLayout(layout) {
			t.Errorf("expected %q to be fixed-width", layout)
		}
	}
	for _, layout := range []string{"", "2/1/2006", "02/1/2006", "January 02 2006", "dd/mm/yyyy"} {
		if FixedWidthLayout(layout) {
			t.Errorf("expected %q to be rejected", layout)
		}
	}
}

package summary

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/CollectionsReport/internal/activity"
)

var classifier = activity.NewClassifier("")

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func event(seq int64, account, channel, contactType, outcome, actor, date string) activity.ClassifiedEvent {
	return classifier.Classify(activity.ContactEvent{
		Seq:         seq,
		AccountID:   account,
		EventDate:   day(date),
		Channel:     channel,
		ContactType: contactType,
		Outcome:     outcome,
		Actor:       actor,
	})
}

func assertInvariants(t *testing.T, s Summary) {
	t.Helper()
	c := s.Channels
	assert.Equal(t, c.Phone+c.Field+c.SMS+c.Email+c.IVR+c.Mail, s.TotalActivities, "total_activities")
	ct := s.ContactTypes
	assert.Equal(t, ct.Direct+ct.Indirect+ct.NoContact, s.TotalAttempts, "total_attempts")

	f := s.Flags()
	set := 0
	for _, b := range []bool{f.DirectContact, f.IndirectContact, f.NoContact, f.DialerOnly} {
		if b {
			set++
		}
	}
	assert.LessOrEqual(t, set, 1, "flags must be mutually exclusive")
}

func TestSummarizeConcreteScenario(t *testing.T) {
	events := []activity.ClassifiedEvent{
		event(1, "A1", "PHONE", "PRIMARY", "PAYMENT_PROMISE", "jdoe", "2026-02-15"),
		event(2, "A1", "PHONE", "PRIMARY", "NO_PROMISE", "jdoe", "2026-02-10"),
		event(3, "A1", "EMAIL", "PRIMARY", "NO_RESPONSE", "jdoe", "2026-02-05"),
	}

	s := NewSummarizer("").Summarize("A1", events)

	assert.Equal(t, 2, s.Channels.Phone)
	assert.Equal(t, 1, s.Channels.Email)
	assert.Equal(t, 3, s.TotalActivities)
	assert.Equal(t, 3, s.TotalAttempts)
	assert.Equal(t, 1, s.TotalPromises)
	assert.True(t, s.Flags().DirectContact)
	assert.False(t, s.Flags().IndirectContact)
	require.NotNil(t, s.Representative)
	assert.Equal(t, int64(1), s.Representative.Seq)
	assert.Equal(t, day("2026-02-15"), s.Representative.EventDate)
	assertInvariants(t, s)
}

func TestSummarizeDialerOnly(t *testing.T) {
	events := []activity.ClassifiedEvent{
		event(1, "A2", "PHONE", "NO_CONTACT", "NO_ANSWER", activity.DefaultDialerActor, "2026-02-01"),
		event(2, "A2", "PHONE", "NO_CONTACT", "NO_ANSWER", activity.DefaultDialerActor, "2026-02-02"),
	}

	s := NewSummarizer("").Summarize("A2", events)

	assert.Equal(t, 2, s.ContactTypes.Dialer)
	assert.Equal(t, 0, s.ContactTypes.NoContact)
	assert.Equal(t, 0, s.TotalAttempts)
	assert.Equal(t, 2, s.TotalActivities)
	assert.True(t, s.Flags().DialerOnly)
	assert.False(t, s.Flags().NoContact)
	assert.Equal(t, QualityDialerOnly, s.Quality)
	assertInvariants(t, s)
}

func TestSummarizeNoEvents(t *testing.T) {
	s := NewSummarizer("").Summarize("A3", nil)

	assert.Equal(t, Summary{AccountID: "A3"}, s)
	assert.Nil(t, s.Representative)
	assert.Equal(t, 0, s.TotalActivities)
	assert.Equal(t, 0, s.TotalAttempts)
	assert.Equal(t, Flags{}, s.Flags())
	assert.Equal(t, "no_activity", s.Quality.String())
}

func TestQualityPriority(t *testing.T) {
	tests := []struct {
		name   string
		events []activity.ClassifiedEvent
		want   ContactQuality
	}{
		{
			name: "indirect beats no contact",
			events: []activity.ClassifiedEvent{
				event(1, "A", "PHONE", "NO_CONTACT", "", "jdoe", "2026-01-01"),
				event(2, "A", "PHONE", "RELATIVE", "", "jdoe", "2026-01-02"),
			},
			want: QualityIndirect,
		},
		{
			name: "direct beats everything",
			events: []activity.ClassifiedEvent{
				event(1, "A", "SMS", "THIRD_PARTY", "", "jdoe", "2026-01-01"),
				event(2, "A", "FIELD", "PRIMARY", "", "jdoe", "2026-01-02"),
				event(3, "A", "PHONE", "NO_CONTACT", "", activity.DefaultDialerActor, "2026-01-03"),
			},
			want: QualityDirect,
		},
		{
			name: "no contact beats dialer",
			events: []activity.ClassifiedEvent{
				event(1, "A", "PHONE", "NO_CONTACT", "", activity.DefaultDialerActor, "2026-01-01"),
				event(2, "A", "PHONE", "NO_CONTACT", "", "jdoe", "2026-01-02"),
			},
			want: QualityNoContact,
		},
		{
			name: "only unclassified is no activity",
			events: []activity.ClassifiedEvent{
				event(1, "A", "PHONE", "VOICEMAIL", "", "jdoe", "2026-01-01"),
				event(2, "A", "EMAIL", "EMAIL", "", "jdoe", "2026-01-02"),
			},
			want: QualityNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSummarizer("").Summarize("A", tt.events)
			assert.Equal(t, tt.want, s.Quality)
			assertInvariants(t, s)
		})
	}
}

func TestNotRegisteredChannelExcludedFromActivities(t *testing.T) {
	events := []activity.ClassifiedEvent{
		event(1, "A", "WHATSAPP", "PRIMARY", "", "jdoe", "2026-01-01"),
		event(2, "A", "SMS", "NO_CONTACT", "", "jdoe", "2026-01-02"),
	}

	s := NewSummarizer("").Summarize("A", events)

	assert.Equal(t, 1, s.TotalActivities)
	assert.Equal(t, 1, s.ContactTypes.Direct, "type still counts for an unregistered channel")
	assert.Equal(t, 2, s.TotalAttempts)
	assert.Equal(t, 2, s.EventCount)
	require.NotNil(t, s.Representative)
	assert.Equal(t, activity.ChannelSMS, s.Representative.NormalizedChannel)
}

func TestRepresentativePrefersPhoneOverMail(t *testing.T) {
	events := []activity.ClassifiedEvent{
		event(1, "A", "MAIL", "PRIMARY", "", "jdoe", "2026-01-05"),
		event(2, "A", "PHONE", "PRIMARY", "", "jdoe", "2026-01-05"),
	}
	s := NewSummarizer("").Summarize("A", events)
	require.NotNil(t, s.Representative)
	assert.Equal(t, activity.ChannelPhone, s.Representative.NormalizedChannel)
}

func TestRepresentativePrefersLaterDate(t *testing.T) {
	events := []activity.ClassifiedEvent{
		event(1, "A", "PHONE", "PRIMARY", "", "jdoe", "2026-01-05"),
		event(2, "A", "PHONE", "PRIMARY", "", "jdoe", "2026-03-01"),
		event(3, "A", "PHONE", "PRIMARY", "", "jdoe", "2026-02-01"),
	}
	s := NewSummarizer("").Summarize("A", events)
	require.NotNil(t, s.Representative)
	assert.Equal(t, day("2026-03-01"), s.Representative.EventDate)
}

func TestRepresentativeContactTypeBeforeDate(t *testing.T) {
	events := []activity.ClassifiedEvent{
		event(1, "A", "PHONE", "NO_CONTACT", "", "jdoe", "2026-03-01"),
		event(2, "A", "PHONE", "THIRD_PARTY", "", "jdoe", "2026-01-01"),
	}
	s := NewSummarizer("").Summarize("A", events)
	require.NotNil(t, s.Representative)
	assert.Equal(t, int64(2), s.Representative.Seq)
}

func TestRepresentativeTieBreakByIngestionOrder(t *testing.T) {
	events := []activity.ClassifiedEvent{
		event(9, "A", "PHONE", "PRIMARY", "B", "jdoe", "2026-01-05"),
		event(4, "A", "PHONE", "PRIMARY", "A", "jdoe", "2026-01-05"),
	}
	s := NewSummarizer("").Summarize("A", events)
	require.NotNil(t, s.Representative)
	assert.Equal(t, int64(4), s.Representative.Seq)
}

func TestRepresentativeIgnoresInputOrderWithoutSeq(t *testing.T) {
	promise := event(0, "A", "PHONE", "PRIMARY", "PAYMENT_PROMISE", "agent7", "2026-01-05")
	refusal := event(0, "A", "PHONE", "PRIMARY", "REFUSED", "agent2", "2026-01-05")

	summarizer := NewSummarizer("")
	forward := summarizer.Summarize("A", []activity.ClassifiedEvent{promise, refusal})
	backward := summarizer.Summarize("A", []activity.ClassifiedEvent{refusal, promise})
	require.NotNil(t, forward.Representative)
	assert.Equal(t, forward, backward)
	assert.Equal(t, "PAYMENT_PROMISE", forward.Representative.Outcome)
}

func TestRepresentativeStableUnderReordering(t *testing.T) {
	var events []activity.ClassifiedEvent
	channels := []string{"PHONE", "SMS", "MAIL", "IVR", "FIELD", "EMAIL"}
	types := []string{"PRIMARY", "THIRD_PARTY", "NO_CONTACT", "EMAIL"}
	dates := []string{"2026-01-01", "2026-01-02", "2026-01-03"}
	seq := int64(0)
	for _, ch := range channels {
		for _, ct := range types {
			for _, d := range dates {
				seq++
				events = append(events, event(seq, "A", ch, ct, "", "jdoe", d))
			}
		}
	}

	summarizer := NewSummarizer("")
	want := summarizer.Summarize("A", events)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]activity.ClassifiedEvent(nil), events...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := summarizer.Summarize("A", shuffled)
		assert.Equal(t, want, got)
	}
	require.NotNil(t, want.Representative)
	assert.Equal(t, activity.ChannelPhone, want.Representative.NormalizedChannel)
	assert.Equal(t, activity.ContactDirect, want.Representative.NormalizedContactType)
	assert.Equal(t, day("2026-01-03"), want.Representative.EventDate)
}

func TestRankDoesNotModifyInput(t *testing.T) {
	events := []activity.ClassifiedEvent{
		event(1, "A", "MAIL", "PRIMARY", "", "jdoe", "2026-01-05"),
		event(2, "A", "PHONE", "PRIMARY", "", "jdoe", "2026-01-05"),
	}
	ranked := Rank(events)
	assert.Equal(t, int64(2), ranked[0].Seq)
	assert.Equal(t, int64(1), events[0].Seq)
}

func TestCustomPromiseOutcome(t *testing.T) {
	events := []activity.ClassifiedEvent{
		event(1, "A", "PHONE", "PRIMARY", "PROMESA", "jdoe", "2026-01-05"),
		event(2, "A", "PHONE", "PRIMARY", DefaultPromiseOutcome, "jdoe", "2026-01-06"),
	}
	s := NewSummarizer("PROMESA").Summarize("A", events)
	assert.Equal(t, 1, s.TotalPromises)
}

func TestSummarizeRoster(t *testing.T) {
	events := []activity.ClassifiedEvent{
		event(1, "A1", "PHONE", "PRIMARY", "PAYMENT_PROMISE", "jdoe", "2026-02-15"),
		event(2, "GHOST", "PHONE", "PRIMARY", "", "jdoe", "2026-02-15"),
		event(3, "A2", "SMS", "NO_CONTACT", "", "jdoe", "2026-02-14"),
		event(4, "A1", "IVR", "NO_CONTACT", "", activity.DefaultDialerActor, "2026-02-13"),
		event(5, "OTHER", "MAIL", "PRIMARY", "", "jdoe", "2026-02-12"),
	}

	batch, err := NewSummarizer("").SummarizeRoster(context.Background(), []string{"A1", "A2", "A3", "A1"}, events, 2)
	require.NoError(t, err)

	require.Len(t, batch.Summaries, 3)
	assert.Equal(t, "A1", batch.Summaries[0].AccountID)
	assert.Equal(t, "A2", batch.Summaries[1].AccountID)
	assert.Equal(t, "A3", batch.Summaries[2].AccountID)

	assert.Equal(t, 2, batch.Summaries[0].TotalActivities)
	assert.True(t, batch.Summaries[0].Flags().DirectContact)
	assert.True(t, batch.Summaries[1].Flags().NoContact)
	assert.Equal(t, Summary{AccountID: "A3"}, batch.Summaries[2])

	require.Len(t, batch.Orphans, 2)
	assert.Equal(t, "GHOST", batch.Orphans[0].AccountID)
	assert.Equal(t, "OTHER", batch.Orphans[1].AccountID)
}

func TestSummarizeRosterMatchesSequential(t *testing.T) {
	var roster []string
	var events []activity.ClassifiedEvent
	channels := []string{"PHONE", "SMS", "MAIL", "LETTER", "FIELD", "AGENT", "FAX"}
	types := []string{"PRIMARY", "THIRD_PARTY", "NO_CONTACT", "FAMILY", "EMAIL", "X"}
	seq := int64(0)
	for a := 0; a < 50; a++ {
		id := string(rune('A'+a%26)) + string(rune('a'+a/26))
		roster = append(roster, id)
		for e := 0; e < a%7; e++ {
			seq++
			actor := "jdoe"
			if e%3 == 0 {
				actor = activity.DefaultDialerActor
			}
			events = append(events, event(seq, id, channels[(a+e)%len(channels)], types[(a*e)%len(types)],
				"", actor, "2026-01-0"+string(rune('1'+e))))
		}
	}

	s := NewSummarizer("")
	batch, err := s.SummarizeRoster(context.Background(), roster, events, 8)
	require.NoError(t, err)
	require.Len(t, batch.Summaries, len(roster))
	assert.Empty(t, batch.Orphans)

	for i, id := range roster {
		var own []activity.ClassifiedEvent
		for _, ev := range events {
			if ev.AccountID == id {
				own = append(own, ev)
			}
		}
		assert.Equal(t, s.Summarize(id, own), batch.Summaries[i])
		assertInvariants(t, batch.Summaries[i])
	}
}

func TestSummarizeRosterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSummarizer("").SummarizeRoster(ctx, []string{"A1", "A2"}, nil, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

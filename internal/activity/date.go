package activity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SourceDateLayout is the day/month/year layout used by the source exports.
const SourceDateLayout = "02/01/2006"

// ErrMalformedDate is wrapped by every DateError.
var ErrMalformedDate = errors.New("malformed event date")

// DateError reports source date text that is not a valid calendar date.
type DateError struct {
	Text   string
	Reason string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrMalformedDate, e.Text, e.Reason)
}

func (e *DateError) Unwrap() error { return ErrMalformedDate }

// ParseEventDate parses DD/MM/YYYY text into a UTC calendar date.
func ParseEventDate(text string) (time.Time, error) {
	return ParseDate(text, SourceDateLayout)
}

// ParseDate parses text with a fixed-width layout (see FixedWidthLayout). The
// text must match the layout's length exactly; impossible days and months are
// rejected.
func ParseDate(text, layout string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, &DateError{Text: text, Reason: "empty"}
	}
	if len(text) != len(layout) {
		return time.Time{}, &DateError{Text: text, Reason: fmt.Sprintf("expected layout %s", layout)}
	}
	d, err := time.Parse(layout, text)
	if err != nil {
		var pe *time.ParseError
		reason := err.Error()
		if errors.As(err, &pe) && pe.Message != "" {
			reason = strings.TrimPrefix(pe.Message, ": ")
		} else if errors.As(err, &pe) {
			reason = fmt.Sprintf("cannot parse %q as %q", pe.ValueElem, pe.LayoutElem)
		}
		return time.Time{}, &DateError{Text: text, Reason: reason}
	}
	return d, nil
}

// FixedWidthLayout reports whether layout renders every date at the same
// length, which ParseDate requires. Zero-padded layouts such as 02/01/2006
// qualify; 2/1/2006 and month names like January do not.
func FixedWidthLayout(layout string) bool {
	if layout == "" {
		return false
	}
	short := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Format(layout)
	long := time.Date(2024, 12, 25, 13, 44, 55, 0, time.UTC).Format(layout)
	if short == long || len(short) != len(long) {
		return false
	}
	_, err := time.Parse(layout, long)
	return err == nil
}

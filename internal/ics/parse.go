package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"coursecal/internal/model"
)

// ErrEmpty is returned by Decode for input with no content.
var ErrEmpty = errors.New("empty ICS body")

// Decode parses a whole ICS payload. Grammar and unfolding are left to the
// underlying library.
func Decode(body []byte) (*ical.Calendar, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmpty
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if cal == nil {
		return nil, errors.New("no calendar in ICS body")
	}
	return cal, nil
}

// Event reads the course fields of ve.
func Event(ve *ical.VEvent) model.Event {
	var out model.Event

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	out.Summary = Text(ve, ical.ComponentPropertySummary)
	out.Location = Text(ve, ical.ComponentPropertyLocation)
	out.Description = Text(ve, ical.ComponentPropertyDescription)

	return out
}

// Text returns the value of prop on ve. TEXT escapes are already decoded by
// the parser.
func Text(ve *ical.VEvent, prop ical.ComponentProperty) model.Text {
	p := ve.GetProperty(prop)
	if p == nil {
		return model.Text{}
	}
	return model.NewText(p.Value)
}

// SetText replaces the value of prop on ve with v. An existing property keeps
// its parameters and its position; escaping happens on Serialize.
func SetText(ve *ical.VEvent, prop ical.ComponentProperty, v string) {
	if p := ve.GetProperty(prop); p != nil {
		p.Value = v
		return
	}
	ve.SetProperty(prop, v)
}

// CopyHeaders copies the calendar-level X-WR-* properties (calendar name,
// timezone, description) from src to dst.
func CopyHeaders(dst, src *ical.Calendar) {
	for _, p := range src.CalendarProperties {
		if strings.HasPrefix(strings.ToUpper(p.IANAToken), "X-WR-") {
			dst.CalendarProperties = append(dst.CalendarProperties, p)
		}
	}
}

// parseICSTime parses a basic ICS date/date-time string. Floating and
// date-only values are interpreted in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if loc == nil {
		loc = time.Local
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		const layout = "20060102T150405Z"
		return time.Parse(layout, v)
	}

	// Local date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		const layout = "20060102T150405"
		return time.ParseInLocation(layout, v, loc)
	}

	// Date-only (all-day), e.g., 20250101
	const layoutDate = "20060102"
	t, err := time.ParseInLocation(layoutDate, v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", v, err)
	}
	return t, nil
}

package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

const (
	defaultMaxSessions = 5000
	defaultHorizon     = 365 * 24 * time.Hour
)

// SessionConfig controls how far recurring events are expanded.
type SessionConfig struct {
	// Horizon is the window after DTSTART in which sessions are counted.
	// If zero, one year is used.
	Horizon time.Duration

	// MaxSessions is a safety cap on expansion. If zero,
	// defaultMaxSessions is used.
	MaxSessions int
}

// Sessions summarizes the concrete meetings of one course event.
type Sessions struct {
	First     time.Time
	Count     int
	Recurring bool
	Truncated bool // hit MaxSessions
}

// CountSessions expands the RRULE and EXDATEs of ve within the configured
// horizon. Non-recurring events have exactly one session.
func CountSessions(ve *ical.VEvent, cfg SessionConfig) (Sessions, error) {
	if cfg.Horizon <= 0 {
		cfg.Horizon = defaultHorizon
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}

	if ve.GetProperty(ical.ComponentPropertyDtStart) == nil {
		return Sessions{}, errors.New("missing DTSTART")
	}
	start, err := ve.GetStartAt()
	if err != nil {
		return Sessions{}, fmt.Errorf("parse DTSTART: %w", err)
	}

	rruleProp := ve.GetProperty(ical.ComponentPropertyRrule)
	if rruleProp == nil || strings.TrimSpace(rruleProp.Value) == "" {
		return Sessions{First: start, Count: 1}, nil
	}

	r, err := rrule.StrToRRule(rruleProp.Value)
	if err != nil {
		return Sessions{}, fmt.Errorf("parse RRULE %q: %w", rruleProp.Value, err)
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)

	// EXDATE can appear multiple times, each with a comma separated list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			if t, err := parseICSTime(part, start.Location()); err == nil {
				set.ExDate(t)
			}
		}
	}

	times := set.Between(start, start.Add(cfg.Horizon), true)

	out := Sessions{Recurring: true, Count: len(times)}
	if len(times) > cfg.MaxSessions {
		out.Count = cfg.MaxSessions
		out.Truncated = true
	}
	if len(times) > 0 {
		out.First = times[0]
	}
	return out, nil
}

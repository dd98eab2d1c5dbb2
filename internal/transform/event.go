// Package transform rewrites the free-text fields of exported course events
// into their display form.
//
// Every field transform is a pure function that either returns the
// replacement value or a *FieldError. Transformer.Apply runs them over one
// event and applies the same fallback to every field: on error the original
// value is kept and a warning is logged.
package transform

import (
	"coursecal/internal/building"
	appLog "coursecal/internal/log"
	"coursecal/internal/model"
)

// Result records what happened to one field of one event.
type Result struct {
	Field    Field
	Original string
	Value    string // equals Original when Err is non-nil
	Err      error
}

// Changed reports whether the field ends up with a different value.
func (r Result) Changed() bool {
	return r.Err == nil && r.Value != r.Original
}

// Report is the outcome of transforming one event.
type Report struct {
	UID              string
	Results          []Result
	UnknownBuildings []string
}

// Failed returns the number of fields that fell back to their original value.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Transformed returns the number of fields whose value was rewritten.
func (r Report) Transformed() int {
	n := 0
	for _, res := range r.Results {
		if res.Changed() {
			n++
		}
	}
	return n
}

// Transformer applies the course conventions to events.
type Transformer struct {
	buildings building.Table
}

// New returns a Transformer that resolves building codes with buildings.
func New(buildings building.Table) *Transformer {
	return &Transformer{buildings: buildings}
}

// Location rewrites "Milner,room 204" to "MIL 204". A building missing from
// the table is not an error; its full name is used instead.
func (t *Transformer) Location(s string) (string, error) {
	v, _, err := t.location(s)
	return v, err
}

func (t *Transformer) location(s string) (value string, unknown string, err error) {
	bldg, room, err := splitLocation(s)
	if err != nil {
		return "", "", err
	}
	code, ok := t.buildings.Lookup(bldg)
	if !ok {
		code, unknown = bldg, bldg
	}
	return code + " " + room, unknown, nil
}

// Apply transforms the present fields of ev in place and reports the result
// of each. Fields that cannot be parsed are left untouched.
func (t *Transformer) Apply(ev *model.Event) Report {
	rep := Report{UID: ev.UID}

	if ev.Summary.Valid {
		rep.Results = append(rep.Results, t.applyField(ev, FieldSummary, &ev.Summary, Summary))
	}

	if ev.Location.Valid {
		rep.Results = append(rep.Results, t.applyField(ev, FieldLocation, &ev.Location, func(s string) (string, error) {
			v, unknown, err := t.location(s)
			if err == nil && unknown != "" {
				rep.UnknownBuildings = append(rep.UnknownBuildings, unknown)
				appLog.Warn("unable to find code for building - reusing original name",
					"building", unknown,
					"uid", ev.UID,
				)
			}
			return v, err
		}))
	}

	if ev.Description.Valid {
		rep.Results = append(rep.Results, t.applyField(ev, FieldDescription, &ev.Description, FormatDescription))
	}

	return rep
}

func (t *Transformer) applyField(ev *model.Event, f Field, text *model.Text, fn func(string) (string, error)) Result {
	res := Result{Field: f, Original: text.Value, Value: text.Value}

	v, err := fn(text.Value)
	if err != nil {
		res.Err = err
		appLog.Warn("failed to parse "+string(f)+" - reusing original",
			"field", string(f),
			"uid", ev.UID,
			"reason", err.Error(),
		)
		return res
	}

	res.Value = v
	text.Value = v
	return res
}

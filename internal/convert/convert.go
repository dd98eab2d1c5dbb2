// Package convert runs the one-shot conversion of a course calendar: read the
// whole input, transform every event, write the whole output.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	ical "github.com/arran4/golang-ical"
	"github.com/google/renameio/v2"

	"coursecal/internal/building"
	"coursecal/internal/config"
	"coursecal/internal/ics"
	appLog "coursecal/internal/log"
	"coursecal/internal/transform"
)

// Fatal errors. Each aborts the run before anything is written.
var (
	ErrReadInput   = errors.New("could not access input")
	ErrParseInput  = errors.New("could not parse ICS input")
	ErrWriteOutput = errors.New("could not write output")
)

// State is the lifecycle of a Driver.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures one conversion.
type Options struct {
	// Input is a file path or an http(s) URL.
	Input string
	// Output is the destination file path.
	Output string

	Buildings building.Table
	NonEvents config.ComponentPolicy
	ProductID string

	// Fetcher downloads URL inputs. If nil, a default one is used.
	Fetcher *ics.Fetcher
}

// Summary counts what a conversion did.
type Summary struct {
	Events            int
	FieldsTransformed int
	FieldsKept        int // fell back to the original value
	UnknownBuildings  int
	ComponentsKept    int // non-event components copied through
	ComponentsDropped int

	Reports []transform.Report
}

// Driver owns the input and output calendars for a single run.
type Driver struct {
	opts  Options
	tr    *transform.Transformer
	state State
}

// New returns an idle Driver.
func New(opts Options) *Driver {
	return &Driver{
		opts: opts,
		tr:   transform.New(opts.Buildings),
	}
}

// State reports where the driver is in its lifecycle.
func (d *Driver) State() State {
	return d.state
}

// Run converts opts.Input into opts.Output. It is the package-level
// shorthand for New(opts).Run(ctx).
func Run(ctx context.Context, opts Options) (Summary, error) {
	return New(opts).Run(ctx)
}

// Run performs the conversion. A Driver runs at most once.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	if d.state != StateIdle {
		return Summary{}, fmt.Errorf("driver is %s", d.state)
	}
	d.state = StateRunning
	defer func() { d.state = StateDone }()

	body, err := Load(ctx, d.opts.Input, d.opts.Fetcher)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	in, err := ics.Decode(body)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrParseInput, err)
	}

	out, sum := Convert(in, d.tr, d.opts)

	if err := ctx.Err(); err != nil {
		return sum, err
	}
	if err := writeCalendar(d.opts.Output, out); err != nil {
		return sum, fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	appLog.Info("conversion complete",
		"output", d.opts.Output,
		"events", sum.Events,
		"fields_transformed", sum.FieldsTransformed,
		"fields_kept", sum.FieldsKept,
		"unknown_buildings", sum.UnknownBuildings,
		"components_kept", sum.ComponentsKept,
		"components_dropped", sum.ComponentsDropped,
	)
	return sum, nil
}

// Load reads the whole input, from disk or over HTTP.
func Load(ctx context.Context, input string, f *ics.Fetcher) ([]byte, error) {
	if input == "" {
		return nil, errors.New("no input given")
	}
	if ics.IsURL(input) {
		if f == nil {
			f = ics.NewFetcher(nil)
		}
		return f.Fetch(ctx, input)
	}
	return os.ReadFile(input)
}

var fieldProperties = map[transform.Field]ical.ComponentProperty{
	transform.FieldSummary:     ical.ComponentPropertySummary,
	transform.FieldLocation:    ical.ComponentPropertyLocation,
	transform.FieldDescription: ical.ComponentPropertyDescription,
}

// Convert builds the output calendar from in. Events of in are modified in
// place and moved to the output in their original order; other components
// are kept or dropped according to opts.NonEvents.
func Convert(in *ical.Calendar, tr *transform.Transformer, opts Options) (*ical.Calendar, Summary) {
	out := ical.NewCalendar()
	productID := opts.ProductID
	if productID == "" {
		productID = config.DefaultProductID
	}
	out.SetProductId(productID)
	ics.CopyHeaders(out, in)

	var sum Summary
	for _, comp := range in.Components {
		switch c := comp.(type) {
		case *ical.VEvent:
			ev := ics.Event(c)
			rep := tr.Apply(&ev)
			for _, res := range rep.Results {
				if res.Changed() {
					ics.SetText(c, fieldProperties[res.Field], res.Value)
				}
			}
			out.AddVEvent(c)

			sum.Events++
			sum.FieldsTransformed += rep.Transformed()
			sum.FieldsKept += rep.Failed()
			sum.UnknownBuildings += len(rep.UnknownBuildings)
			sum.Reports = append(sum.Reports, rep)

		default:
			if opts.NonEvents == config.PolicyDrop {
				appLog.Debug("dropping non-event component", "type", fmt.Sprintf("%T", comp))
				sum.ComponentsDropped++
				continue
			}
			out.Components = append(out.Components, comp)
			sum.ComponentsKept++
		}
	}

	return out, sum
}

// writeCalendar writes cal to path in one atomic step. On any error the
// previous file at path, if any, is left untouched.
func writeCalendar(path string, cal *ical.Calendar) error {
	if path == "" {
		return errors.New("no output path given")
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644), renameio.WithExistingPermissions())
	if err != nil {
		return err
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			appLog.Debug("cleanup pending output file", "err", err)
		}
	}()

	if _, err := io.WriteString(pending, cal.Serialize()); err != nil {
		return err
	}
	return pending.CloseAtomicallyReplace()
}

package convert

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursecal/internal/building"
	"coursecal/internal/config"
	"coursecal/internal/ics"
	appLog "coursecal/internal/log"
	"coursecal/internal/transform"
)

func crlf(lines ...string) string {
	return strings.Join(lines, "\r\n") + "\r\n"
}

var courseCalendar = crlf(
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//Registrar//Course Export//EN",
	"X-WR-TIMEZONE:America/Chicago",
	"BEGIN:VTIMEZONE",
	"TZID:America/Chicago",
	"BEGIN:STANDARD",
	"DTSTART:19701101T020000",
	"TZOFFSETFROM:-0500",
	"TZOFFSETTO:-0600",
	"END:STANDARD",
	"END:VTIMEZONE",
	"BEGIN:VEVENT",
	"UID:evt-1@example.edu",
	"DTSTAMP:20240801T120000Z",
	"DTSTART:20240902T130000Z",
	"DTEND:20240902T140000Z",
	"SUMMARY:250 Data Structures",
	"LOCATION:Engineering and Science Ctr\\,room 101",
	"DESCRIPTION:REG\\,[LEC]\\,taught by Doe\\, John",
	"CATEGORIES:COURSE",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:evt-2@example.edu",
	"DTSTAMP:20240801T120000Z",
	"DTSTART:20240903T150000Z",
	"SUMMARY:Seminar",
	"LOCATION:Unknown Hall\\,room 5",
	"DESCRIPTION:no commas here",
	"END:VEVENT",
	"END:VCALENDAR",
)

func quietLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	appLog.SetOutput(&buf)
	t.Cleanup(func() { appLog.SetOutput(&bytes.Buffer{}) })
	return &buf
}

func writeInput(t *testing.T, content string) (in, out string) {
	t.Helper()
	dir := t.TempDir()
	in = filepath.Join(dir, "courses.ics")
	require.NoError(t, os.WriteFile(in, []byte(content), 0o600))
	return in, filepath.Join(dir, "output.ics")
}

func readOutput(t *testing.T, path string) *ical.Calendar {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	require.NoError(t, err)
	return cal
}

func defaultOptions(in, out string) Options {
	return Options{
		Input:     in,
		Output:    out,
		Buildings: building.Default(),
		NonEvents: config.PolicyKeep,
	}
}

func TestRunEndToEnd(t *testing.T) {
	logs := quietLogs(t)
	in, out := writeInput(t, courseCalendar)

	d := New(defaultOptions(in, out))
	assert.Equal(t, StateIdle, d.State())

	sum, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, d.State())

	assert.Equal(t, 2, sum.Events)
	assert.Equal(t, 4, sum.FieldsTransformed)
	assert.Equal(t, 2, sum.FieldsKept)
	assert.Equal(t, 1, sum.UnknownBuildings)
	assert.Equal(t, 1, sum.ComponentsKept)
	assert.Zero(t, sum.ComponentsDropped)
	assert.Len(t, sum.Reports, 2)

	cal := readOutput(t, out)
	events := cal.Events()
	require.Len(t, events, 2)

	first := ics.Event(events[0])
	assert.Equal(t, "evt-1@example.edu", first.UID)
	assert.Equal(t, "Data Structures 250", first.Summary.Value)
	assert.Equal(t, "ENS 101", first.Location.Value)
	assert.Equal(t, "Class Type: LEC | Professor(s): John Doe", first.Description.Value)

	// Untouched properties survive verbatim.
	cat := events[0].GetProperty(ical.ComponentPropertyCategories)
	require.NotNil(t, cat)
	assert.Equal(t, "COURSE", cat.Value)
	dtstart := events[0].GetProperty(ical.ComponentPropertyDtStart)
	require.NotNil(t, dtstart)
	assert.Equal(t, "20240902T130000Z", dtstart.Value)

	second := ics.Event(events[1])
	assert.Equal(t, "Seminar", second.Summary.Value)
	assert.Equal(t, "Unknown Hall 5", second.Location.Value)
	assert.Equal(t, "no commas here", second.Description.Value)

	var tz int
	for _, c := range cal.Components {
		if _, ok := c.(*ical.VTimezone); ok {
			tz++
		}
	}
	assert.Equal(t, 1, tz)

	var calName bool
	for _, p := range cal.CalendarProperties {
		if p.IANAToken == "X-WR-TIMEZONE" {
			calName = true
			assert.Equal(t, "America/Chicago", p.Value)
		}
		if p.IANAToken == string(ical.PropertyProductId) {
			assert.Equal(t, config.DefaultProductID, p.Value)
		}
	}
	assert.True(t, calName)

	assert.Contains(t, logs.String(), "conversion complete")
	assert.Contains(t, logs.String(), "unable to find code for building")
}

func TestRunTwoInstructorsEscapedOnce(t *testing.T) {
	quietLogs(t)
	in, out := writeInput(t, crlf(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Registrar//Course Export//EN",
		"BEGIN:VEVENT",
		"UID:evt-3@example.edu",
		"DTSTAMP:20240801T120000Z",
		"DTSTART:20240902T130000Z",
		"SUMMARY:101 A\\;B",
		"LOCATION:Milner\\,room 204",
		"DESCRIPTION:REG\\,[LEC]\\,taught by Smith\\, Jane\\, Doe\\, John",
		"END:VEVENT",
		"END:VCALENDAR",
	))

	_, err := Run(context.Background(), defaultOptions(in, out))
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	raw := string(data)
	assert.Contains(t, raw, "DESCRIPTION:Class Type: LEC | Professor(s): Jane Smith\\, John Doe\r\n")
	assert.Contains(t, raw, "SUMMARY:A\\;B 101\r\n")
	assert.Contains(t, raw, "LOCATION:MIL 204\r\n")
	assert.NotContains(t, raw, `\\`)

	ve := readOutput(t, out).Events()[0]
	assert.Equal(t, "Class Type: LEC | Professor(s): Jane Smith, John Doe",
		ve.GetProperty(ical.ComponentPropertyDescription).Value)
	assert.Equal(t, "A;B 101", ve.GetProperty(ical.ComponentPropertySummary).Value)
}

func TestRunDropsNonEvents(t *testing.T) {
	quietLogs(t)
	in, out := writeInput(t, courseCalendar)

	opts := defaultOptions(in, out)
	opts.NonEvents = config.PolicyDrop
	opts.ProductID = "-//Test//EN"

	sum, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.ComponentsDropped)
	assert.Zero(t, sum.ComponentsKept)

	cal := readOutput(t, out)
	assert.Len(t, cal.Components, 2)
	assert.Len(t, cal.Events(), 2)
}

func TestRunMissingInput(t *testing.T) {
	quietLogs(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "output.ics")

	_, err := Run(context.Background(), defaultOptions(filepath.Join(dir, "missing.ics"), out))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReadInput)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NoFileExists(t, out)
}

func TestRunMalformedInputWritesNothing(t *testing.T) {
	quietLogs(t)
	in, out := writeInput(t, "this is not a calendar\n")

	_, err := Run(context.Background(), defaultOptions(in, out))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParseInput)
	assert.NoFileExists(t, out)
}

func TestRunEmptyInput(t *testing.T) {
	quietLogs(t)
	in, out := writeInput(t, "")

	_, err := Run(context.Background(), defaultOptions(in, out))
	assert.ErrorIs(t, err, ErrParseInput)
	assert.ErrorIs(t, err, ics.ErrEmpty)
	assert.NoFileExists(t, out)
}

func TestRunUnwritableOutput(t *testing.T) {
	quietLogs(t)
	in, _ := writeInput(t, courseCalendar)
	out := filepath.Join(t.TempDir(), "no", "such", "dir", "output.ics")

	_, err := Run(context.Background(), defaultOptions(in, out))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWriteOutput)
	assert.NoFileExists(t, out)
}

func TestRunKeepsPreviousOutputOnFailure(t *testing.T) {
	quietLogs(t)
	in, out := writeInput(t, "not a calendar at all\r\n")
	require.NoError(t, os.WriteFile(out, []byte("previous"), 0o644))

	_, err := Run(context.Background(), defaultOptions(in, out))
	require.Error(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestRunCanceledContext(t *testing.T) {
	quietLogs(t)
	in, out := writeInput(t, courseCalendar)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, defaultOptions(in, out))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, out)
}

func TestDriverRunsOnce(t *testing.T) {
	quietLogs(t)
	in, out := writeInput(t, courseCalendar)

	d := New(defaultOptions(in, out))
	_, err := d.Run(context.Background())
	require.NoError(t, err)

	_, err = d.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateDone, d.State())
}

func TestRunFromURL(t *testing.T) {
	quietLogs(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(courseCalendar))
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "output.ics")
	opts := defaultOptions(srv.URL+"/export.ics", out)
	opts.Fetcher = ics.NewFetcher(srv.Client())

	sum, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Events)
	assert.FileExists(t, out)
}

func TestConvertInMemory(t *testing.T) {
	quietLogs(t)
	in, err := ics.Decode([]byte(courseCalendar))
	require.NoError(t, err)

	out, sum := Convert(in, transform.New(building.Default()), Options{})
	assert.Equal(t, 2, sum.Events)
	// An empty policy keeps non-event components.
	assert.Equal(t, 1, sum.ComponentsKept)
	assert.Len(t, out.Events(), 2)

	serialized := out.Serialize()
	assert.Contains(t, serialized, "SUMMARY:Data Structures 250")
	assert.Contains(t, serialized, "LOCATION:ENS 101")
	assert.Contains(t, serialized, "PRODID:"+config.DefaultProductID)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "State(7)", State(7).String())
}

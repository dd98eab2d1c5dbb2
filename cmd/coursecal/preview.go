package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"coursecal/internal/convert"
	"coursecal/internal/ics"
	appLog "coursecal/internal/log"
	"coursecal/internal/transform"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newPreviewCmd(flags *globalFlags) *cobra.Command {
	var horizonDays int

	cmd := &cobra.Command{
		Use:   "preview <input.ics|url>",
		Short: "Show the converted events without writing a file",
		Long: `Convert the calendar in memory and print one row per event with the
rewritten fields, the first session and the number of sessions within the
horizon (RRULE and EXDATE are expanded).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*flags)
			if err != nil {
				return err
			}

			body, err := convert.Load(cmd.Context(), args[0], nil)
			if err != nil {
				return fmt.Errorf("%w: %w", convert.ErrReadInput, err)
			}
			in, err := ics.Decode(body)
			if err != nil {
				return fmt.Errorf("%w: %w", convert.ErrParseInput, err)
			}

			out, sum := convert.Convert(in, transform.New(cfg.Table()), convert.Options{
				NonEvents: cfg.NonEventComponents,
				ProductID: cfg.ProductID,
			})

			sessions := ics.SessionConfig{Horizon: time.Duration(horizonDays) * 24 * time.Hour}
			renderPreview(cmd.OutOrStdout(), out.Events(), sessions)

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d events, %d fields rewritten, %d kept, %d unknown buildings\n",
				sum.Events, sum.FieldsTransformed, sum.FieldsKept, sum.UnknownBuildings)
			return err
		},
	}

	cmd.Flags().IntVar(&horizonDays, "horizon-days", 365, "Days after the first session in which recurring sessions are counted")

	return cmd
}

func renderPreview(w io.Writer, events []*ical.VEvent, cfg ics.SessionConfig) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SUMMARY", "LOCATION", "DESCRIPTION", "FIRST", "SESSIONS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, ve := range events {
		ev := ics.Event(ve)
		first, count := "-", "-"

		s, err := ics.CountSessions(ve, cfg)
		if err != nil {
			appLog.Debug("could not count sessions", "uid", ev.UID, "err", err)
		} else {
			if !s.First.IsZero() {
				first = s.First.Format("2006-01-02 15:04")
			}
			count = strconv.Itoa(s.Count)
			if s.Truncated {
				count += "+"
			}
		}

		t.Row(ev.Summary.Value, ev.Location.Value, ev.Description.Value, first, count)
	}

	fmt.Fprintln(w, t.String())
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"venueslots/internal/availability"
	"venueslots/internal/calendar"

	"github.com/spf13/cobra"
)

func calendarCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print a venue's month calendar",
		Example: `  slotctl calendar --venue 3 --month 2025-06
  slotctl calendar --venue 3 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			engine, closeFn, err := openEngine()
			if err != nil {
				return err
			}
			defer closeFn()

			year, m, err := resolveMonth(month, engine.Today())
			if err != nil {
				return err
			}

			cal, err := engine.MonthCalendar(ctx, venueID, year, m)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(cal)
			}
			return printCalendar(cal, year, m)
		},
	}
	addVenueFlag(cmd)
	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (default: current month in VENUE_TIMEZONE)")
	return cmd
}

// resolveMonth parses --month, defaulting to the month containing today.
func resolveMonth(month string, today calendar.Day) (int, time.Month, error) {
	if month == "" {
		return today.Year, today.Month, nil
	}
	first, err := calendar.Parse(month + "-01")
	if err != nil {
		return 0, 0, fmt.Errorf("--month must be YYYY-MM: %w", err)
	}
	return first.Year, first.Month, nil
}

func printCalendar(cal availability.Calendar, year int, month time.Month) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDAY\tSTATUS\tSLOTS\tBOOKED")
	for d := 1; d <= calendar.DaysInMonth(year, month); d++ {
		day := calendar.Date(year, month, d)
		da := cal[day]
		booked := make([]string, 0, len(da.BookedRanges))
		for _, b := range da.BookedRanges {
			booked = append(booked, calendar.FormatClock(b.Start)+"-"+calendar.FormatClock(b.End))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			day, day.Weekday().String()[:3], da.Status, len(da.Slots), strings.Join(booked, ","))
	}
	return w.Flush()
}

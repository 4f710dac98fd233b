package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/classify/internal/calendar"
	"github.com/sells-group/classify/internal/model"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Add a schedule to Google Calendar",
	Long:  "Adds events from a schedule CSV (summary,location,description,start,end) or from a completed run's recommendations to a named Google Calendar, creating it if needed.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("calendar"); err != nil {
			return err
		}

		csvPath, _ := cmd.Flags().GetString("csv")
		runID, _ := cmd.Flags().GetString("run")
		if (csvPath == "") == (runID == "") {
			return eris.New("exactly one of --csv or --run is required")
		}

		var entries []model.CalendarEntry
		if csvPath != "" {
			f, err := os.Open(csvPath)
			if err != nil {
				return eris.Wrap(err, "open schedule csv")
			}
			defer f.Close() //nolint:errcheck
			entries, err = calendar.LoadEntriesCSV(f)
			if err != nil {
				return err
			}
		} else {
			var err error
			entries, err = entriesForRun(cmd, runID)
			if err != nil {
				return err
			}
		}
		if len(entries) == 0 {
			return eris.New("no events to add")
		}

		svc, err := initCalendar()
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = cfg.Calendar.Name
		}
		calID, err := svc.GetOrCreate(ctx, name)
		if err != nil {
			return err
		}

		created, err := svc.AddEvents(ctx, calID, entries)
		printSchedule(os.Stdout, created)
		return err
	},
}

// entriesForRun converts a completed run's recommendations into recurring
// calendar entries for the configured quarter.
func entriesForRun(cmd *cobra.Command, runID string) ([]model.CalendarEntry, error) {
	ctx := cmd.Context()
	term, err := calendarTerm()
	if err != nil {
		return nil, err
	}
	if term == nil {
		return nil, eris.New("--run requires calendar.quarter_start")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return nil, err
	}

	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return nil, eris.Wrap(err, "load run")
	}
	if run.Status != model.RunStatusComplete || run.Result == nil {
		return nil, eris.Errorf("run %s is %s, not complete", runID, run.Status)
	}

	entries, warnings := calendar.EntriesFromRecommendations(run.Result.Recommendations, nil, *term)
	for _, w := range warnings {
		zap.L().Warn("calendar: skipping recommendation", zap.String("section", w.Subject), zap.String("reason", w.Message))
	}
	return entries, nil
}

// printSchedule writes the created events, one block per event.
func printSchedule(out io.Writer, schedule []model.CalendarEntry) {
	if len(schedule) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out, "Your Class Schedule:")
	_, _ = fmt.Fprintln(out)
	for _, e := range schedule {
		_, _ = fmt.Fprintf(out, "%s | %s - %s | %s\n", e.Summary, e.Start, e.End, e.Location)
		if e.Description != "" {
			_, _ = fmt.Fprintf(out, "  Description: %s\n", e.Description)
		}
		_, _ = fmt.Fprintln(out, "---")
	}
}

func init() {
	calendarCmd.Flags().String("csv", "", "schedule CSV with summary,location,description,start,end columns")
	calendarCmd.Flags().String("run", "", "ID of a completed run whose recommendations to add")
	calendarCmd.Flags().String("name", "", "calendar name (default from config)")
	rootCmd.AddCommand(calendarCmd)
}

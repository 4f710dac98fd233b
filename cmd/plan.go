package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/classify/internal/calendar"
	"github.com/sells-group/classify/internal/model"
	"github.com/sells-group/classify/internal/schedule"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Recommend one section per requested course",
	Long:  "Runs the full planning pipeline against a section table (local .xlsx/.csv or an http(s) URL) and prints the recommended schedule.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		req := planRequestFromFlags(cmd)
		if err := schedule.ValidateRequest(req); err != nil {
			return eris.Wrap(err, "plan")
		}

		format, _ := cmd.Flags().GetString("format")
		if format != "" && format != "text" && format != "json" && format != "yaml" {
			return eris.Errorf("unknown output format %q (want text, json, or yaml)", format)
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sheet, _ := cmd.Flags().GetString("sheet")
		sections, err := env.LoadSections(ctx, sheet)
		if err != nil {
			return eris.Wrap(err, "load sections")
		}
		zap.L().Info("section table loaded", zap.Int("sections", len(sections)))

		result, err := env.Planner.Plan(ctx, req, sections)
		if err != nil {
			fmt.Fprintln(os.Stderr, schedule.UserMessage(err))
			return eris.Wrap(err, "plan")
		}

		out := os.Stdout
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return eris.Wrap(err, "create output file")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		if err := writeResult(out, result, format); err != nil {
			return err
		}

		if push, _ := cmd.Flags().GetBool("calendar"); push {
			return pushRecommendations(cmd, env, result.Recommendations, sections)
		}
		return nil
	},
}

func planRequestFromFlags(cmd *cobra.Command) model.PlanRequest {
	courses, _ := cmd.Flags().GetStringSlice("courses")
	quarter, _ := cmd.Flags().GetString("quarter")
	days, _ := cmd.Flags().GetStringSlice("days")
	timePref, _ := cmd.Flags().GetString("time")
	teacherPref, _ := cmd.Flags().GetString("teacher")
	return model.PlanRequest{
		Courses:           courses,
		Quarter:           quarter,
		DaysOfWeek:        days,
		TimePreference:    timePref,
		TeacherPreference: teacherPref,
	}
}

// pushRecommendations places recommendations on the configured calendar as
// weekly recurring events.
func pushRecommendations(cmd *cobra.Command, env *pipelineEnv, recs []model.RecommendationRecord, sections []model.Section) error {
	if env.Calendar == nil {
		return errors.New("calendar export requires calendar.access_token")
	}
	term, err := calendarTerm()
	if err != nil {
		return err
	}
	if term == nil {
		return errors.New("calendar export requires calendar.quarter_start")
	}

	entries, warnings := calendar.EntriesFromRecommendations(recs, model.NewSectionSet(sections), *term)
	for _, w := range warnings {
		zap.L().Warn("calendar: skipping recommendation", zap.String("section", w.Subject), zap.String("reason", w.Message))
	}

	name, _ := cmd.Flags().GetString("calendar-name")
	if name == "" {
		name = cfg.Calendar.Name
	}
	ctx := cmd.Context()
	calID, err := env.Calendar.GetOrCreate(ctx, name)
	if err != nil {
		return err
	}
	created, err := env.Calendar.AddEvents(ctx, calID, entries)
	printSchedule(os.Stderr, created)
	return err
}

func init() {
	planCmd.Flags().String("sheet", "", "section table path or URL (default from config)")
	planCmd.Flags().StringSlice("courses", nil, "courses to schedule, e.g. \"MATH 51,CSCI 10\"")
	planCmd.Flags().String("quarter", "", "quarter, e.g. \"Fall 2025\"")
	planCmd.Flags().StringSlice("days", nil, "preferred days, e.g. Mon,Wed,Fri")
	planCmd.Flags().String("time", "", "preferred time of day (morning, afternoon, evening)")
	planCmd.Flags().String("teacher", "", "free-form instructor preference")
	planCmd.Flags().String("format", "text", "output format: text, json, or yaml")
	planCmd.Flags().StringP("output", "o", "", "write output to a file instead of stdout")
	planCmd.Flags().Bool("calendar", false, "also add the recommendations to Google Calendar")
	planCmd.Flags().String("calendar-name", "", "calendar name (default from config)")
	rootCmd.AddCommand(planCmd)
}

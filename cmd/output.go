package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/classify/internal/model"
)

// writeResult renders a plan result as text, json, or yaml.
func writeResult(out io.Writer, result *model.PlanResult, format string) error {
	switch format {
	case "", "text":
		formatPlanText(out, result)
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(result), "encode json")
	case "yaml":
		return writeYAML(out, result)
	default:
		return eris.Errorf("unknown output format %q (want text, json, or yaml)", format)
	}
}

// writeYAML emits v as YAML using its JSON field names.
func writeYAML(out io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "marshal result")
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return eris.Wrap(err, "unmarshal result")
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return eris.Wrap(err, "encode yaml")
	}
	return eris.Wrap(enc.Close(), "close yaml encoder")
}

// formatPlanText writes the recommendations, the rated candidates, and any
// warnings as aligned tables.
func formatPlanText(out io.Writer, r *model.PlanResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if r.RunID != "" {
		_, _ = fmt.Fprintf(w, "Run:\t%s\n", r.RunID)
	}
	_, _ = fmt.Fprintf(w, "Sections considered:\t%d\n", r.SectionCount)
	if r.Degraded {
		_, _ = fmt.Fprintln(w, "Filter:\tno course matched, full table used")
	}
	_, _ = fmt.Fprintf(w, "Cost:\t$%.4f (%d in / %d out tokens)\n\n", r.Usage.Cost, r.Usage.InputTokens, r.Usage.OutputTokens)

	_, _ = fmt.Fprintln(w, "CLASS\tSECTION\tTEACHER\tTIME")
	_, _ = fmt.Fprintln(w, "-----\t-------\t-------\t----")
	for _, rec := range r.Recommendations {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.ClassNumber, rec.CourseSection, rec.Teacher, rec.Time)
	}
	_ = w.Flush()

	for _, rec := range r.Recommendations {
		if rec.Reasoning != "" {
			_, _ = fmt.Fprintf(out, "\n%s: %s\n", rec.CourseSection, rec.Reasoning)
		}
	}

	if len(r.Comparison) > 0 {
		_, _ = fmt.Fprintln(out, "\nCandidates:")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "CLASS\tSECTION\tTEACHER\tRATING\tDIFFICULTY\tLOOKUP")
		for _, g := range r.Comparison {
			for _, c := range g.Records {
				rating, difficulty := "-", "-"
				if c.Professor != nil {
					rating = strconv.FormatFloat(c.Professor.AvgRating, 'f', 1, 64)
					difficulty = strconv.FormatFloat(c.Professor.AvgDifficulty, 'f', 1, 64)
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					g.ClassNumber, c.CourseSection, c.Teacher, rating, difficulty, c.Status)
			}
		}
		_ = w.Flush()
	}

	if len(r.Warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, warn := range r.Warnings {
			_, _ = fmt.Fprintf(out, "  [%s] %s\n", warn.Code, strings.TrimSpace(warn.Subject+" "+warn.Message))
		}
	}
}

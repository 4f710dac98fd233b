package schedule

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/classify/internal/model"
)

const systemPrompt = "You are a university course scheduling assistant. " +
	"You answer only with a JSON array and never invent course sections that are not listed."

// BuildExtractionPrompt asks the model to choose candidate sections from
// the summarized section table.
func BuildExtractionPrompt(req model.PlanRequest, summary string) string {
	var b strings.Builder

	b.WriteString("A student is building a schedule for ")
	b.WriteString(orDefault(req.Quarter, "the upcoming quarter"))
	b.WriteString(".\n\n")
	writePreferences(&b, req)

	b.WriteString("\nAvailable sections (COURSE | INSTRUCTOR | MEETING | LOCATION | ENROLLMENT):\n")
	b.WriteString(summary)
	if !strings.HasSuffix(summary, "\n") {
		b.WriteString("\n")
	}

	b.WriteString(`
For every requested course, list each section from the table above that fits the student's preferences.
Give sections of the same course the same classNumber ("1" for the first course, "2" for the second, and so on).
Copy courseSection, teacher and time exactly as they appear in the table.

Respond with only a JSON array of objects shaped like:
[{"classNumber": "1", "courseSection": "MATH 51-2", "teacher": "Mary Jane Watson", "time": "MWF 9:15 AM-10:20 AM"}]
`)
	return b.String()
}

// BuildRecommendationPrompt asks the model to pick one section per class
// number from the comparison set.
func BuildRecommendationPrompt(req model.PlanRequest, comparison model.Comparison) (string, error) {
	data, err := json.MarshalIndent(comparison, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "schedule: marshal comparison")
	}

	var b strings.Builder
	b.WriteString("Choose the best section for each class number below.\n\n")
	writePreferences(&b, req)

	b.WriteString("\nCandidate sections grouped by classNumber, with instructor ratings where available ")
	b.WriteString("(professor is null when no rating profile was found):\n")
	b.Write(data)
	b.WriteString(`

Pick exactly one section per classNumber. Sections must not overlap in time.
Weigh the student's instructor preference against avgRating, avgDifficulty, wouldTakeAgainPercent and the comments.

Respond with only a JSON array of objects shaped like:
[{"courseSection": "MATH 51-2", "teacher": "Mary Jane Watson", "classNumber": "1", "time": "MWF 9:15 AM-10:20 AM", "reasoning": "one or two sentences"}]
`)
	return b.String(), nil
}

func writePreferences(b *strings.Builder, req model.PlanRequest) {
	fmt.Fprintf(b, "Requested courses: %s\n", strings.Join(ParseKeywords(req.Keywords()), ", "))
	fmt.Fprintf(b, "Preferred days: %s\n", orDefault(strings.Join(req.DaysOfWeek, ", "), "any"))
	fmt.Fprintf(b, "Preferred time of day: %s\n", orDefault(req.TimePreference, "any"))
	fmt.Fprintf(b, "Instructor preference: %s\n", orDefault(req.TeacherPreference, "none"))
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

package calendar

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/classify/internal/model"
)

// Term is the quarter a schedule repeats over.
type Term struct {
	Start    time.Time // first day of instruction
	Weeks    int
	Location *time.Location
}

// NewTerm parses a YYYY-MM-DD start date in the named time zone.
func NewTerm(start string, weeks int, timeZone string) (Term, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return Term{}, eris.Wrapf(err, "calendar: load time zone %q", timeZone)
	}
	day, err := time.ParseInLocation(time.DateOnly, start, loc)
	if err != nil {
		return Term{}, eris.Wrapf(err, "calendar: parse quarter start %q", start)
	}
	if weeks <= 0 {
		return Term{}, eris.Errorf("calendar: quarter weeks must be positive, got %d", weeks)
	}
	return Term{Start: day, Weeks: weeks, Location: loc}, nil
}

// EntriesFromRecommendations turns each recommendation into a weekly
// recurring entry for the term. Recommendations whose meeting pattern
// cannot be parsed are skipped with a warning. known supplies locations and
// may be nil.
func EntriesFromRecommendations(recs []model.RecommendationRecord, known model.SectionSet, term Term) ([]model.CalendarEntry, []model.Warning) {
	var (
		entries  []model.CalendarEntry
		warnings []model.Warning
	)
	for _, r := range recs {
		m, err := ParseMeeting(r.Time)
		if err != nil {
			warnings = append(warnings, model.Warning{
				Code:    model.WarnUnparsableMeeting,
				Subject: r.CourseSection,
				Message: fmt.Sprintf("meeting time %q could not be placed on the calendar", r.Time),
			})
			continue
		}

		first := firstOccurrence(term.Start, m.Days)
		midnight := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, term.Location)

		var location string
		if sec, ok := known.Lookup(r.CourseSection); ok {
			location = sec.Location
		}

		entries = append(entries, model.CalendarEntry{
			Summary:     r.CourseSection,
			Location:    location,
			Description: description(r),
			Start:       midnight.Add(m.Start).Format(time.RFC3339),
			End:         midnight.Add(m.End).Format(time.RFC3339),
			Recurrence: []string{
				fmt.Sprintf("RRULE:FREQ=WEEKLY;BYDAY=%s;COUNT=%d", m.ByDay(), term.Weeks*len(m.Days)),
			},
		})
	}
	return entries, warnings
}

// firstOccurrence returns the earliest day on or after start that falls on
// one of days.
func firstOccurrence(start time.Time, days []time.Weekday) time.Time {
	for i := range 7 {
		d := start.AddDate(0, 0, i)
		for _, wd := range days {
			if d.Weekday() == wd {
				return d
			}
		}
	}
	return start
}

func description(r model.RecommendationRecord) string {
	parts := []string{"Instructor: " + r.Teacher}
	if r.Time != "" {
		parts = append(parts, "Meets: "+r.Time)
	}
	if r.Reasoning != "" {
		parts = append(parts, r.Reasoning)
	}
	return strings.Join(parts, "\n")
}

var entryColumns = []string{"summary", "location", "description", "start", "end"}

// LoadEntriesCSV reads summary,location,description,start,end rows. The
// header row is required; column order is free.
func LoadEntriesCSV(r io.Reader) ([]model.CalendarEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "calendar: read csv header")
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range entryColumns {
		if _, ok := idx[col]; !ok {
			return nil, eris.Errorf("calendar: csv is missing column %q", col)
		}
	}

	var entries []model.CalendarEntry
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "calendar: read csv line %d", line)
		}
		field := func(name string) string {
			if i := idx[name]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		e := model.CalendarEntry{
			Summary:     field("summary"),
			Location:    field("location"),
			Description: field("description"),
			Start:       field("start"),
			End:         field("end"),
		}
		if e.Summary == "" && e.Start == "" {
			continue
		}
		if e.Start == "" || e.End == "" {
			return nil, eris.Errorf("calendar: csv line %d: start and end are required", line)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseEntryTime accepts RFC 3339 timestamps or zone-less ISO datetimes,
// which are localized to loc.
func parseEntryTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("calendar: unrecognized datetime %q", s)
}

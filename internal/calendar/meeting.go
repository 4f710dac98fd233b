package calendar

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rotisserie/eris"
)

// Meeting is a parsed weekly meeting pattern. Start and End are offsets
// from midnight.
type Meeting struct {
	Days  []time.Weekday
	Start time.Duration
	End   time.Duration
}

var timeRangeRe = regexp.MustCompile(
	`(\d{1,2})(?::(\d{2}))?\s*([AaPp])?\.?[Mm]?\.?\s*[-–]\s*(\d{1,2})(?::(\d{2}))?\s*([AaPp])?\.?[Mm]?\.?`,
)

// dayTokens is ordered so two-letter abbreviations win over single letters.
var dayTokens = []struct {
	token string
	day   time.Weekday
}{
	{"TH", time.Thursday},
	{"TU", time.Tuesday},
	{"SA", time.Saturday},
	{"SU", time.Sunday},
	{"M", time.Monday},
	{"T", time.Tuesday},
	{"W", time.Wednesday},
	{"R", time.Thursday},
	{"F", time.Friday},
	{"S", time.Saturday},
	{"U", time.Sunday},
}

var byDay = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// ParseMeeting parses patterns such as "MWF 9:15 AM-10:20 AM" and
// "TTh 10:00-11:40".
func ParseMeeting(pattern string) (Meeting, error) {
	loc := timeRangeRe.FindStringSubmatchIndex(pattern)
	if loc == nil {
		return Meeting{}, eris.Errorf("calendar: no time range in %q", pattern)
	}

	days, err := parseDays(pattern[:loc[0]])
	if err != nil {
		return Meeting{}, eris.Wrapf(err, "calendar: meeting %q", pattern)
	}

	m := timeRangeRe.FindStringSubmatch(pattern)
	start, end, err := parseRange(m)
	if err != nil {
		return Meeting{}, eris.Wrapf(err, "calendar: meeting %q", pattern)
	}
	return Meeting{Days: days, Start: start, End: end}, nil
}

// ByDay renders the days as an RRULE BYDAY value.
func (m Meeting) ByDay() string {
	parts := make([]string, len(m.Days))
	for i, d := range m.Days {
		parts[i] = byDay[d]
	}
	return strings.Join(parts, ",")
}

func parseDays(s string) ([]time.Weekday, error) {
	letters := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToUpper(r)
		}
		return -1
	}, s)
	if letters == "" {
		return nil, eris.New("no meeting days")
	}

	seen := make(map[time.Weekday]bool)
	var days []time.Weekday
	for letters != "" {
		matched := false
		for _, dt := range dayTokens {
			if strings.HasPrefix(letters, dt.token) {
				if !seen[dt.day] {
					seen[dt.day] = true
					days = append(days, dt.day)
				}
				letters = letters[len(dt.token):]
				matched = true
				break
			}
		}
		if !matched {
			return nil, eris.Errorf("unknown day abbreviation at %q", letters)
		}
	}
	return days, nil
}

func parseRange(m []string) (time.Duration, time.Duration, error) {
	sh, _ := strconv.Atoi(m[1])
	sm, _ := strconv.Atoi(orZero(m[2]))
	eh, _ := strconv.Atoi(m[4])
	em, _ := strconv.Atoi(orZero(m[5]))
	if sh > 23 || eh > 23 || sm > 59 || em > 59 {
		return 0, 0, eris.New("time out of range")
	}

	startMer, endMer := strings.ToUpper(m[3]), strings.ToUpper(m[6])
	if startMer == "" {
		startMer = endMer
	}

	start := clock(sh, sm, startMer)
	end := clock(eh, em, endMer)
	// "11:00-12:15 PM" borrows PM from the end time only when it fits.
	if m[3] == "" && start >= end && startMer == "P" {
		start = clock(sh, sm, "A")
	}
	if startMer == "" && endMer == "" {
		// Without a meridiem, early hours are afternoon classes.
		if sh < 7 {
			start += 12 * time.Hour
		}
		if eh < 7 || end <= start {
			end += 12 * time.Hour
		}
	}
	if end <= start {
		return 0, 0, eris.New("end time is not after start time")
	}
	return start, end, nil
}

func clock(h, m int, meridiem string) time.Duration {
	switch meridiem {
	case "A":
		if h == 12 {
			h = 0
		}
	case "P":
		if h < 12 {
			h += 12
		}
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

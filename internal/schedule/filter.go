package schedule

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/classify/internal/model"
)

// ParseKeywords splits a comma-separated keyword string into trimmed,
// non-empty keywords.
func ParseKeywords(raw string) []string {
	var out []string
	for _, tok := range strings.Split(raw, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// MatchesKeyword reports whether courseSection belongs to the course named
// by keyword: the case-folded section must start with the case-folded,
// trimmed keyword followed immediately by "-". "MATH 51" therefore matches
// "MATH 51-2" but never "MATH 511-1".
func MatchesKeyword(courseSection, keyword string) bool {
	fold := cases.Fold()
	prefix := fold.String(strings.TrimSpace(keyword)) + "-"
	return strings.HasPrefix(fold.String(courseSection), prefix)
}

// FilterSections keeps the sections matching any of the comma-separated
// keywords, in their original order. An empty keyword list returns the
// input unchanged. When keywords are given but nothing matches, the full
// input is returned with degraded set so the caller can warn the user.
func FilterSections(sections []model.Section, rawKeywords string) (matched []model.Section, degraded bool) {
	keywords := ParseKeywords(rawKeywords)
	if len(keywords) == 0 {
		return sections, false
	}

	fold := cases.Fold()
	prefixes := make([]string, len(keywords))
	for i, k := range keywords {
		prefixes[i] = fold.String(k) + "-"
	}

	for _, s := range sections {
		folded := fold.String(s.CourseSection)
		for _, p := range prefixes {
			if strings.HasPrefix(folded, p) {
				matched = append(matched, s)
				break
			}
		}
	}

	if len(matched) == 0 {
		return sections, true
	}
	return matched, false
}

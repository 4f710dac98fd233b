package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// Section is one row of the course-section table. Only CourseSection is
// consumed by the pipeline; the remaining columns are passed through to
// model prompts as context.
type Section struct {
	CourseSection  string `json:"course_section"`
	Title          string `json:"title,omitempty"`
	Instructor     string `json:"instructor"`
	Enrollment     string `json:"enrollment,omitempty"`
	MeetingPattern string `json:"meeting_pattern"`
	Location       string `json:"location,omitempty"`
	Units          string `json:"units,omitempty"`
}

// SectionSet indexes course sections for membership checks. Keys are
// compared after whitespace collapsing and Unicode case folding.
type SectionSet map[string]Section

// NewSectionSet builds a SectionSet from the given sections.
func NewSectionSet(sections []Section) SectionSet {
	set := make(SectionSet, len(sections))
	for _, s := range sections {
		set.Add(s)
	}
	return set
}

// Add indexes sec, replacing any section with the same key.
func (s SectionSet) Add(sec Section) {
	s[sectionKey(sec.CourseSection)] = sec
}

// Lookup returns the section with the given course section string.
func (s SectionSet) Lookup(courseSection string) (Section, bool) {
	sec, ok := s[sectionKey(courseSection)]
	return sec, ok
}

func sectionKey(courseSection string) string {
	return cases.Fold().String(strings.Join(strings.Fields(courseSection), " "))
}

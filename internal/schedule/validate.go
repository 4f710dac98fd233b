package schedule

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/classify/internal/model"
)

// ValidateSections drops records whose courseSection is not in the known
// section table. Kept records take the table's spelling of the section.
func ValidateSections(records []model.SectionRecord, known model.SectionSet) ([]model.SectionRecord, []model.Warning) {
	var (
		kept     = make([]model.SectionRecord, 0, len(records))
		warnings []model.Warning
	)
	for _, r := range records {
		sec, ok := known.Lookup(r.CourseSection)
		if !ok {
			zap.L().Warn("schedule: model returned unknown section",
				zap.String("course_section", r.CourseSection),
				zap.String("class_number", r.ClassNumber),
			)
			warnings = append(warnings, model.Warning{
				Code:    model.WarnUnknownSection,
				Subject: r.CourseSection,
				Message: fmt.Sprintf("section %q is not in the section table and was removed", r.CourseSection),
			})
			continue
		}
		r.CourseSection = sec.CourseSection
		kept = append(kept, r)
	}
	return kept, warnings
}

// PickWinners keeps the first recommendation for each class number and
// reports duplicates, plus any class from the comparison that received no
// recommendation. A recommendation must name a candidate of its class group;
// any other is dropped and kept ones take the candidate's spelling.
func PickWinners(recs []model.RecommendationRecord, comparison model.Comparison) ([]model.RecommendationRecord, []model.Warning) {
	var (
		candidates = make(map[string]model.SectionSet, len(comparison))
		seen       = make(map[string]bool, len(recs))
		winners    = make([]model.RecommendationRecord, 0, len(comparison))
		warnings   []model.Warning
	)
	for _, g := range comparison {
		set := make(model.SectionSet, len(g.Records))
		for _, r := range g.Records {
			set.Add(model.Section{CourseSection: r.CourseSection})
		}
		candidates[g.ClassNumber] = set
	}

	for _, r := range recs {
		sec, ok := candidates[r.ClassNumber].Lookup(r.CourseSection)
		if !ok {
			zap.L().Warn("schedule: model recommended a non-candidate section",
				zap.String("course_section", r.CourseSection),
				zap.String("class_number", r.ClassNumber),
			)
			warnings = append(warnings, model.Warning{
				Code:    model.WarnUnknownSection,
				Subject: r.CourseSection,
				Message: fmt.Sprintf("recommended section %q is not a candidate for class %s and was removed", r.CourseSection, r.ClassNumber),
			})
			continue
		}
		r.CourseSection = sec.CourseSection
		if seen[r.ClassNumber] {
			warnings = append(warnings, model.Warning{
				Code:    model.WarnDuplicateClass,
				Subject: r.ClassNumber,
				Message: fmt.Sprintf("extra recommendation %q for class %s ignored", r.CourseSection, r.ClassNumber),
			})
			continue
		}
		seen[r.ClassNumber] = true
		winners = append(winners, r)
	}

	for _, g := range comparison {
		if !seen[g.ClassNumber] {
			warnings = append(warnings, model.Warning{
				Code:    model.WarnMissingClass,
				Subject: g.ClassNumber,
				Message: fmt.Sprintf("no recommendation returned for class %s", g.ClassNumber),
			})
		}
	}
	return winners, warnings
}

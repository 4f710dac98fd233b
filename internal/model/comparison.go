package model

// LookupStatus records what happened when a record's instructor was looked up.
type LookupStatus string

const (
	LookupFound    LookupStatus = "found"
	LookupNotFound LookupStatus = "not_found"
	LookupSkipped  LookupStatus = "skipped" // name could not be resolved
	LookupError    LookupStatus = "error"   // transport failure
)

// ComparisonRecord pairs an extracted section with its instructor profile.
// Professor is nil whenever Status is not LookupFound.
type ComparisonRecord struct {
	SectionRecord
	Name      *ResolvedName     `json:"resolvedName,omitempty"`
	Professor *ProfessorProfile `json:"professor"`
	Status    LookupStatus      `json:"lookupStatus"`
}

// ComparisonGroup holds every candidate section for one class number, in
// extraction order.
type ComparisonGroup struct {
	ClassNumber string             `json:"classNumber"`
	Records     []ComparisonRecord `json:"sections"`
}

// Comparison is the grouped comparison dataset, ordered by the first
// appearance of each class number.
type Comparison []ComparisonGroup

// Len returns the total number of records across all groups.
func (c Comparison) Len() int {
	n := 0
	for _, g := range c {
		n += len(g.Records)
	}
	return n
}

// Records flattens the groups back into a single slice.
func (c Comparison) Records() []ComparisonRecord {
	out := make([]ComparisonRecord, 0, c.Len())
	for _, g := range c {
		out = append(out, g.Records...)
	}
	return out
}

package model

// SectionRecord is a section choice claimed by the extraction model. It is
// untrusted until validated against the section table.
type SectionRecord struct {
	ClassNumber   string `json:"classNumber"`
	CourseSection string `json:"courseSection"`
	Teacher       string `json:"teacher"`
	Time          string `json:"time"`
}

// RecommendationRecord is the final per-class pick produced by the
// recommendation model.
type RecommendationRecord struct {
	CourseSection string `json:"courseSection"`
	Teacher       string `json:"teacher"`
	ClassNumber   string `json:"classNumber"`
	Time          string `json:"time"`
	Reasoning     string `json:"reasoning"`
}

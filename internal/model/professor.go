package model

// ResolvedName is an instructor display name split into the parts the
// rating service is queried by.
type ResolvedName struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

// String returns the name as "Given Family".
func (n ResolvedName) String() string {
	return n.Given + " " + n.Family
}

// ProfessorProfile holds aggregated third-party rating statistics for one
// instructor.
type ProfessorProfile struct {
	ID                    string    `json:"id,omitempty"`
	Given                 string    `json:"firstName"`
	Family                string    `json:"lastName"`
	Department            string    `json:"department"`
	School                string    `json:"school"`
	AvgRating             float64   `json:"avgRating"`
	AvgDifficulty         float64   `json:"avgDifficulty"`
	NumRatings            int       `json:"numRatings"`
	WouldTakeAgainPercent float64   `json:"wouldTakeAgainPercent"`
	Comments              []Comment `json:"comments,omitempty"`
}

// Comment is a single student review.
type Comment struct {
	Comment string   `json:"comment"`
	Tags    []string `json:"tags,omitempty"`
	Class   string   `json:"class"`
	Date    string   `json:"date"`
}

// WithCommentCap returns a copy of the profile with at most n comments.
// A negative n leaves the comments untouched.
func (p ProfessorProfile) WithCommentCap(n int) ProfessorProfile {
	if n < 0 || len(p.Comments) <= n {
		return p
	}
	capped := make([]Comment, n)
	copy(capped, p.Comments[:n])
	p.Comments = capped
	return p
}

package professor

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/classify/internal/model"
)

type profileInfo struct {
	FirstName             string  `json:"firstName"`
	LastName              string  `json:"lastName"`
	Department            string  `json:"department"`
	School                string  `json:"school"`
	AvgRating             float64 `json:"avgRating"`
	AvgDifficulty         float64 `json:"avgDifficulty"`
	NumRatings            int     `json:"numRatings"`
	WouldTakeAgainPercent float64 `json:"wouldTakeAgainPercent"`
}

type profileDocument struct {
	Info     profileInfo     `json:"professor_info"`
	Comments []model.Comment `json:"comments"`
}

// WriteJSON writes the profile as {"professor_info": ..., "comments": [...]}.
func WriteJSON(w io.Writer, p *model.ProfessorProfile) error {
	doc := profileDocument{
		Info: profileInfo{
			FirstName:             p.Given,
			LastName:              p.Family,
			Department:            p.Department,
			School:                p.School,
			AvgRating:             p.AvgRating,
			AvgDifficulty:         p.AvgDifficulty,
			NumRatings:            p.NumRatings,
			WouldTakeAgainPercent: p.WouldTakeAgainPercent,
		},
		Comments: p.Comments,
	}
	if doc.Comments == nil {
		doc.Comments = []model.Comment{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "professor: encode json")
	}
	return nil
}

// WriteCSV writes the profile as a two-section CSV: an information block
// followed by one row per comment.
func WriteCSV(w io.Writer, p *model.ProfessorProfile) error {
	cw := csv.NewWriter(w)
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	rows := [][]string{
		{"Professor Information"},
		{"First Name", p.Given},
		{"Last Name", p.Family},
		{"Department", p.Department},
		{"School", p.School},
		{"Average Rating", f(p.AvgRating)},
		{"Average Difficulty", f(p.AvgDifficulty)},
		{"Number of Ratings", strconv.Itoa(p.NumRatings)},
		{"Would Take Again (%)", f(p.WouldTakeAgainPercent)},
		{},
		{"Comments"},
		{"Date", "Class", "Tags", "Comment"},
	}
	for _, c := range p.Comments {
		rows = append(rows, []string{c.Date, c.Class, strings.Join(c.Tags, ", "), c.Comment})
	}

	if err := cw.WriteAll(rows); err != nil {
		return eris.Wrap(err, "professor: write csv")
	}
	return nil
}

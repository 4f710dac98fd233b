package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/classify/internal/model"
)

// Layout maps spreadsheet columns to section fields. Column indices are
// zero-based; a negative index leaves the field empty.
type Layout struct {
	SheetName     string
	SkipRows      int
	SectionCol    int
	TitleCol      int
	InstructorCol int
	EnrollmentCol int
	MeetingCol    int
	LocationCol   int
	UnitsCol      int
}

// DefaultLayout matches the registrar export: section, title, instructor,
// enrollment, meeting pattern, location, with one header row.
func DefaultLayout() Layout {
	return Layout{
		SkipRows:      1,
		SectionCol:    0,
		TitleCol:      1,
		InstructorCol: 2,
		EnrollmentCol: 3,
		MeetingCol:    4,
		LocationCol:   5,
		UnitsCol:      -1,
	}
}

// ReadSections reads a local .xlsx or .csv file into sections.
func ReadSections(filePath string, layout Layout) ([]model.Section, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx":
		rows, err = readXLSX(filePath, layout.SheetName)
	case ".csv":
		var f *os.File
		f, err = os.Open(filePath)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: open csv")
		}
		defer f.Close() //nolint:errcheck
		rows, err = readCSV(f)
	default:
		return nil, eris.Errorf("fetcher: unsupported section file %q (want .xlsx or .csv)", filePath)
	}
	if err != nil {
		return nil, err
	}
	return RowsToSections(rows, layout), nil
}

// LoadSections reads sections from a local path or an http(s) URL. Remote
// files are downloaded to a temporary file first.
func LoadSections(ctx context.Context, f Fetcher, location string, layout Layout) ([]model.Section, error) {
	u, err := url.Parse(location)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ReadSections(location, layout)
	}

	dir, err := os.MkdirTemp("", "classify-sections-")
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	local := filepath.Join(dir, path.Base(u.Path))
	n, err := f.DownloadToFile(ctx, location, local)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: download %s", location)
	}
	zap.L().Info("fetcher: downloaded section table", zap.String("url", location), zap.Int64("bytes", n))

	return ReadSections(local, layout)
}

// RowsToSections converts raw rows into sections, skipping header rows and
// rows without a course section.
func RowsToSections(rows [][]string, layout Layout) []model.Section {
	var out []model.Section
	for i, row := range rows {
		if i < layout.SkipRows {
			continue
		}
		sec := model.Section{
			CourseSection:  cell(row, layout.SectionCol),
			Title:          cell(row, layout.TitleCol),
			Instructor:     cell(row, layout.InstructorCol),
			Enrollment:     cell(row, layout.EnrollmentCol),
			MeetingPattern: cell(row, layout.MeetingCol),
			Location:       cell(row, layout.LocationCol),
			Units:          cell(row, layout.UnitsCol),
		}
		if sec.CourseSection == "" {
			continue
		}
		out = append(out, sec)
	}
	return out
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// SummarizeSections renders sections as one line each:
// COURSE | INSTRUCTOR | MEETING | LOCATION | ENROLLMENT.
func SummarizeSections(sections []model.Section) string {
	var b strings.Builder
	for _, s := range sections {
		course := s.CourseSection
		if s.Title != "" {
			course += " (" + s.Title + ")"
		}
		fmt.Fprintf(&b, "%s | %s | %s | %s | %s\n",
			course,
			orTBA(s.Instructor),
			orTBA(s.MeetingPattern),
			orTBA(s.Location),
			orTBA(s.Enrollment),
		)
	}
	return b.String()
}

func orTBA(s string) string {
	if s == "" {
		return "TBA"
	}
	return s
}

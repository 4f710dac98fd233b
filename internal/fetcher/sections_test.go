package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/classify/internal/model"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "sections.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

var sectionRows = [][]string{
	{"Section", "Title", "Instructor", "Enrollment", "Meeting", "Location"},
	{"MATH 51-2", "Calculus I", "Mary Jane Watson", "28/30", "MWF 9:15 AM-10:20 AM", "O'Connor 104"},
	{"MATH 511-1", "Topology", "Cher", "5/12", "TTh 10:00-11:40", "Kenna 302"},
	{"", "", "", "", "", ""},
	{"CSCI 10-1", "Intro to Programming", " Ada Lovelace ", "40/40", "TTh 2:00 PM-3:40 PM", "Heafey 123"},
}

func TestReadSections_XLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sections": sectionRows})

	sections, err := ReadSections(path, DefaultLayout())
	require.NoError(t, err)
	require.Len(t, sections, 3)

	assert.Equal(t, model.Section{
		CourseSection:  "MATH 51-2",
		Title:          "Calculus I",
		Instructor:     "Mary Jane Watson",
		Enrollment:     "28/30",
		MeetingPattern: "MWF 9:15 AM-10:20 AM",
		Location:       "O'Connor 104",
	}, sections[0])
	assert.Equal(t, "Ada Lovelace", sections[2].Instructor)
}

func TestReadSections_XLSXNamedSheet(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Other":    {{"x"}},
		"Sections": sectionRows,
	})

	layout := DefaultLayout()
	layout.SheetName = "Sections"
	sections, err := ReadSections(path, layout)
	require.NoError(t, err)
	assert.Len(t, sections, 3)

	layout.SheetName = "Missing"
	_, err = ReadSections(path, layout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Missing" not found`)
}

func TestReadSections_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sections.csv")
	var b strings.Builder
	for _, r := range sectionRows {
		b.WriteString(`"` + strings.Join(r, `","`) + "\"\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	sections, err := ReadSections(path, DefaultLayout())
	require.NoError(t, err)
	require.Len(t, sections, 3)
	assert.Equal(t, "MATH 511-1", sections[1].CourseSection)
	assert.Equal(t, "TTh 10:00-11:40", sections[1].MeetingPattern)
}

func TestReadSections_UnsupportedExtension(t *testing.T) {
	_, err := ReadSections("sections.ods", DefaultLayout())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported section file")
}

func TestRowsToSections_CustomLayout(t *testing.T) {
	rows := [][]string{
		{"units", "section", "prof"},
		{"4", "PHYS 31-1", "Richard Feynman"},
		{"5"}, // short row
	}
	layout := Layout{SkipRows: 1, SectionCol: 1, InstructorCol: 2, UnitsCol: 0, TitleCol: -1, EnrollmentCol: -1, MeetingCol: -1, LocationCol: -1}

	sections := RowsToSections(rows, layout)
	require.Len(t, sections, 1)
	assert.Equal(t, "PHYS 31-1", sections[0].CourseSection)
	assert.Equal(t, "Richard Feynman", sections[0].Instructor)
	assert.Equal(t, "4", sections[0].Units)
	assert.Empty(t, sections[0].Title)
}

func TestSummarizeSections(t *testing.T) {
	out := SummarizeSections([]model.Section{
		{CourseSection: "MATH 51-2", Title: "Calculus I", Instructor: "Mary Jane Watson", MeetingPattern: "MWF 9:15 AM-10:20 AM", Location: "O'Connor 104", Enrollment: "28/30"},
		{CourseSection: "CSCI 10-1"},
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "MATH 51-2 (Calculus I) | Mary Jane Watson | MWF 9:15 AM-10:20 AM | O'Connor 104 | 28/30", lines[0])
	assert.Equal(t, "CSCI 10-1 | TBA | TBA | TBA | TBA", lines[1])
}

func TestLoadSections_LocalPath(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": sectionRows})

	sections, err := LoadSections(context.Background(), NewHTTPFetcher(HTTPOptions{}), path, DefaultLayout())
	require.NoError(t, err)
	assert.Len(t, sections, 3)
}

func TestLoadSections_RemoteURL(t *testing.T) {
	local := createTestXLSX(t, map[string][][]string{"Sheet1": sectionRows})
	data, err := os.ReadFile(local)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exports/fall.xlsx", r.URL.Path)
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	sections, err := LoadSections(context.Background(), NewHTTPFetcher(HTTPOptions{}), srv.URL+"/exports/fall.xlsx", DefaultLayout())
	require.NoError(t, err)
	require.Len(t, sections, 3)
	assert.Equal(t, "CSCI 10-1", sections[2].CourseSection)
}

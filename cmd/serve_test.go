//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/classify/internal/calendar"
	"github.com/sells-group/classify/internal/model"
	"github.com/sells-group/classify/internal/schedule"
	"github.com/sells-group/classify/internal/store"
)

type fakePlanner struct {
	result *model.PlanResult
	err    error
	got    model.PlanRequest
}

func (f *fakePlanner) Plan(_ context.Context, req model.PlanRequest, _ []model.Section) (*model.PlanResult, error) {
	f.got = req
	return f.result, f.err
}

type fakeCalendar struct {
	name    string
	entries []model.CalendarEntry
	addErr  error
}

func (f *fakeCalendar) GetOrCreate(_ context.Context, name string) (string, error) {
	f.name = name
	return "cal-1", nil
}

func (f *fakeCalendar) AddEvents(_ context.Context, _ string, entries []model.CalendarEntry) ([]model.CalendarEntry, error) {
	f.entries = entries
	if f.addErr != nil {
		return entries[:1], f.addErr
	}
	return entries, nil
}

func staticSections(context.Context) ([]model.Section, error) {
	return []model.Section{{CourseSection: "MATH 51-2", Location: "O'Connor 104"}}, nil
}

func validBody() []byte {
	body, _ := json.Marshal(model.PlanRequest{
		Courses:        []string{"MATH 51"},
		Quarter:        "Fall 2025",
		DaysOfWeek:     []string{"Mon"},
		TimePreference: "morning",
	})
	return body
}

func doRequest(h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestBuildRouter_Health(t *testing.T) {
	rr := doRequest(buildRouter(&server{}, nil), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "ok", decodeResponse(t, rr)["status"])
}

func TestBuildRouter_CORS(t *testing.T) {
	h := buildRouter(&server{}, []string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodOptions, "/api/generate-schedule", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestGenerateSchedule_Success(t *testing.T) {
	term, err := calendar.NewTerm("2025-09-22", 10, "America/Los_Angeles")
	require.NoError(t, err)

	p := &fakePlanner{result: &model.PlanResult{
		RunID: "run-1",
		Recommendations: []model.RecommendationRecord{
			{CourseSection: "MATH 51-2", Teacher: "Mary Jane Watson", ClassNumber: "1", Time: "MWF 9:15 AM-10:20 AM"},
		},
	}}
	s := &server{Planner: p, Sections: staticSections, Term: &term}

	rr := doRequest(buildRouter(s, nil), http.MethodPost, "/api/generate-schedule", validBody())
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success bool             `json:"success"`
		Data    generateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "run-1", resp.Data.RunID)
	require.Len(t, resp.Data.Recommendations, 1)
	require.Len(t, resp.Data.Schedule, 1)
	assert.Equal(t, "O'Connor 104", resp.Data.Schedule[0].Location)
	assert.Equal(t, []string{"MATH 51"}, p.got.Courses)
}

func TestGenerateSchedule_InvalidBody(t *testing.T) {
	s := &server{Planner: &fakePlanner{}, Sections: staticSections}

	rr := doRequest(buildRouter(s, nil), http.MethodPost, "/api/generate-schedule", []byte("{"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, false, decodeResponse(t, rr)["success"])
}

func TestGenerateSchedule_IncompleteRequest(t *testing.T) {
	s := &server{Planner: &fakePlanner{}, Sections: staticSections}

	body, _ := json.Marshal(model.PlanRequest{Courses: []string{"MATH 51"}})
	rr := doRequest(buildRouter(s, nil), http.MethodPost, "/api/generate-schedule", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeResponse(t, rr)["error"], "quarter")
}

func TestGenerateSchedule_PlanErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"no candidates", eris.Wrap(schedule.ErrNoCandidates, "plan"), http.StatusUnprocessableEntity, "No matching sections"},
		{"extraction", &schedule.ExtractionError{Snippet: "x"}, http.StatusInternalServerError, "could not be read"},
		{"transport", errors.New("connection refused"), http.StatusInternalServerError, "could not be reached"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &server{Planner: &fakePlanner{err: tt.err}, Sections: staticSections}

			rr := doRequest(buildRouter(s, nil), http.MethodPost, "/api/generate-schedule", validBody())
			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, decodeResponse(t, rr)["error"], tt.msg)
		})
	}
}

func TestGenerateSchedule_SectionsUnavailable(t *testing.T) {
	s := &server{
		Planner: &fakePlanner{},
		Sections: func(context.Context) ([]model.Section, error) {
			return nil, errors.New("s3 down")
		},
	}

	rr := doRequest(buildRouter(s, nil), http.MethodPost, "/api/generate-schedule", validBody())
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestGenerateSchedule_NotConfigured(t *testing.T) {
	rr := doRequest(buildRouter(&server{}, nil), http.MethodPost, "/api/generate-schedule", validBody())
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestAddToCalendar(t *testing.T) {
	cal := &fakeCalendar{}
	s := &server{Calendar: cal, CalendarName: "Class Schedule"}

	body, _ := json.Marshal(addToCalendarRequest{Schedule: []model.CalendarEntry{
		{Summary: "MATH 51-2", Start: "2025-09-22T09:15:00", End: "2025-09-22T10:20:00"},
	}})
	rr := doRequest(buildRouter(s, nil), http.MethodPost, "/api/add-to-calendar", body)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Class Schedule", cal.name)
	data := decodeResponse(t, rr)["data"].(map[string]any)
	assert.Equal(t, "cal-1", data["calendar_id"])
	assert.Len(t, data["events"], 1)
}

func TestAddToCalendar_Errors(t *testing.T) {
	rr := doRequest(buildRouter(&server{}, nil), http.MethodPost, "/api/add-to-calendar", []byte(`{}`))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	s := &server{Calendar: &fakeCalendar{}}
	rr = doRequest(buildRouter(s, nil), http.MethodPost, "/api/add-to-calendar", []byte(`{"schedule":[]}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	cal := &fakeCalendar{addErr: errors.New("quota")}
	s = &server{Calendar: cal}
	body, _ := json.Marshal(addToCalendarRequest{CalendarName: "Mine", Schedule: []model.CalendarEntry{{Summary: "A"}, {Summary: "B"}}})
	rr = doRequest(buildRouter(s, nil), http.MethodPost, "/api/add-to-calendar", body)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, decodeResponse(t, rr)["error"], "Only 1 of 2")
	assert.Equal(t, "Mine", cal.name)
}

func TestRunsEndpoints(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	run, err := st.CreateRun(ctx, model.PlanRequest{Courses: []string{"MATH 51"}, Quarter: "Fall 2025"})
	require.NoError(t, err)

	h := buildRouter(&server{Store: st}, nil)

	rr := doRequest(h, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeResponse(t, rr)["data"], 1)

	rr = doRequest(h, http.MethodGet, "/api/runs?status=complete", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeResponse(t, rr)["data"])

	rr = doRequest(h, http.MethodGet, "/api/runs?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(h, http.MethodGet, "/api/runs/"+run.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeResponse(t, rr)["data"].(map[string]any)
	assert.Equal(t, run.ID, data["id"])

	rr = doRequest(h, http.MethodGet, "/api/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/classify/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testRequest() model.PlanRequest {
	return model.PlanRequest{
		Courses:        []string{"MATH 51", "CSCI 10"},
		Quarter:        "Fall 2025",
		DaysOfWeek:     []string{"Mon", "Wed"},
		TimePreference: "morning",
	}
}

// --- Runs ---

func TestSQLite_RunLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusExtracting))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusExtracting, got.Status)
	assert.Equal(t, []string{"MATH 51", "CSCI 10"}, got.Request.Courses)
	assert.Nil(t, got.Result)

	result := &model.PlanResult{
		RunID:        run.ID,
		SectionCount: 3,
		Recommendations: []model.RecommendationRecord{
			{ClassNumber: "1", CourseSection: "MATH 51-2", Teacher: "Mary Jane Watson", Reasoning: "best rated"},
		},
		Warnings: []model.Warning{{Code: model.WarnLookupMiss, Subject: "Ada Lovelace"}},
	}
	require.NoError(t, st.UpdateRunResult(ctx, run.ID, result))

	got, err = st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 3, got.Result.SectionCount)
	assert.Equal(t, "MATH 51-2", got.Result.Recommendations[0].CourseSection)
	assert.Equal(t, model.WarnLookupMiss, got.Result.Warnings[0].Code)
}

func TestSQLite_FailRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, testRequest())
	require.NoError(t, err)

	require.NoError(t, st.FailRun(ctx, run.ID, "no JSON array in model output"))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "no JSON array in model output", got.Error)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_UpdateMissingRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	err := st.UpdateRunStatus(ctx, "missing", model.RunStatusComplete)
	assert.True(t, errors.Is(err, ErrNotFound))

	err = st.FailRun(ctx, "missing", "boom")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	var ids []string
	for range 3 {
		run, err := st.CreateRun(ctx, testRequest())
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}
	require.NoError(t, st.FailRun(ctx, ids[0], "boom"))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	failed, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, ids[0], failed[0].ID)

	page, err := st.ListRuns(ctx, RunFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

// --- Profile cache ---

func TestSQLite_ProfileCache_SetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p := &model.ProfessorProfile{
		ID:        "VGVhY2hlci0x",
		Given:     "Mary",
		Family:    "Jane Watson",
		AvgRating: 4.5,
		Comments:  []model.Comment{{Comment: "Great lectures", Class: "MATH51"}},
	}
	require.NoError(t, st.SetCachedProfile(ctx, "mary|jane watson", p, time.Hour))

	got, err := st.GetCachedProfile(ctx, "mary|jane watson")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Jane Watson", got.Family)
	assert.InDelta(t, 4.5, got.AvgRating, 0.001)
	assert.Equal(t, "Great lectures", got.Comments[0].Comment)
}

func TestSQLite_ProfileCache_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetCachedProfile(context.Background(), "nobody|here")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_ProfileCache_ExpiredAndPrune(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedProfile(ctx, "old|prof", &model.ProfessorProfile{Given: "Old"}, -time.Hour))
	require.NoError(t, st.SetCachedProfile(ctx, "new|prof", &model.ProfessorProfile{Given: "New"}, time.Hour))

	got, err := st.GetCachedProfile(ctx, "old|prof")
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := st.DeleteExpiredProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = st.GetCachedProfile(ctx, "new|prof")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "New", got.Given)
}

func TestSQLite_ProfileCache_Overwrite(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedProfile(ctx, "k", &model.ProfessorProfile{AvgRating: 2}, time.Hour))
	require.NoError(t, st.SetCachedProfile(ctx, "k", &model.ProfessorProfile{AvgRating: 4}, time.Hour))

	got, err := st.GetCachedProfile(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 4.0, got.AvgRating, 0.001)
}

func TestSQLiteStore_ImplementsStore(t *testing.T) {
	var _ Store = newTestSQLiteStore(t)
	var _ Store = (*PostgresStore)(nil)
}

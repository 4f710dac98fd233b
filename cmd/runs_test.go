//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/classify/internal/model"
)

func sampleRuns() []model.Run {
	base := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	return []model.Run{
		{
			ID:        "0123456789abcdef",
			Request:   model.PlanRequest{Courses: []string{"MATH 51", "CSCI 10"}, Quarter: "Fall 2025"},
			Status:    model.RunStatusComplete,
			Result:    &model.PlanResult{Degraded: true, Warnings: make([]model.Warning, 2), Usage: model.TokenUsage{Cost: 0.02}},
			CreatedAt: base,
			UpdatedAt: base.Add(10 * time.Second),
		},
		{
			ID:        "run-2",
			Request:   model.PlanRequest{Courses: []string{"ENGL 1A"}, Quarter: "Fall 2025"},
			Status:    model.RunStatusComplete,
			Result:    &model.PlanResult{Usage: model.TokenUsage{Cost: 0.01}},
			CreatedAt: base.Add(time.Hour),
			UpdatedAt: base.Add(time.Hour + 20*time.Second),
		},
		{ID: "run-3", Status: model.RunStatusFailed, CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base.Add(2 * time.Hour)},
		{ID: "run-4", Status: model.RunStatusLookingUp, CreatedAt: base.Add(3 * time.Hour), UpdatedAt: base.Add(3 * time.Hour)},
	}
}

func TestComputeRunStats(t *testing.T) {
	s := computeRunStats(sampleRuns())

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Complete)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Other)
	assert.Equal(t, 1, s.Degraded)
	assert.Equal(t, 2, s.Warnings)
	assert.InDelta(t, 0.03, s.TotalCost, 1e-9)
	assert.InDelta(t, 15.0, s.AvgDurSecs, 1e-9)
}

func TestComputeRunStats_Empty(t *testing.T) {
	s := computeRunStats(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.AvgDurSecs)
}

func TestRunsSince(t *testing.T) {
	runs := sampleRuns()
	got := runsSince(runs, runs[2].CreatedAt)

	assert.Len(t, got, 2)
	assert.Equal(t, "run-3", got[0].ID)
}

func TestFormatRunsList(t *testing.T) {
	var buf bytes.Buffer
	formatRunsList(&buf, sampleRuns())

	out := buf.String()
	assert.Contains(t, out, "COURSES")
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "MATH 51, CSCI 10")
	assert.Contains(t, out, "2025-09-01 12:00")
	assert.Contains(t, out, "10s")
	assert.Contains(t, out, "looking_up")
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, computeRunStats(sampleRuns()))

	out := buf.String()
	assert.Contains(t, out, "Total runs:")
	assert.Contains(t, out, "Avg duration:")
	assert.Contains(t, out, "$0.0300")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abcdefgh", truncateID("abcdefghijkl"))
	assert.Equal(t, "short", truncateID("short"))
}

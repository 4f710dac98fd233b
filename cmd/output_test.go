//go:build !integration

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/classify/internal/model"
)

func sampleResult() *model.PlanResult {
	return &model.PlanResult{
		RunID:        "run-42",
		Degraded:     true,
		SectionCount: 3,
		Comparison: model.Comparison{
			{ClassNumber: "1", Records: []model.ComparisonRecord{
				{
					SectionRecord: model.SectionRecord{ClassNumber: "1", CourseSection: "MATH 51-1", Teacher: "Ada Lovelace"},
					Professor:     &model.ProfessorProfile{AvgRating: 4.5, AvgDifficulty: 2.3},
					Status:        model.LookupFound,
				},
				{
					SectionRecord: model.SectionRecord{ClassNumber: "1", CourseSection: "MATH 51-2", Teacher: "Staff"},
					Status:        model.LookupNotFound,
				},
			}},
		},
		Recommendations: []model.RecommendationRecord{
			{CourseSection: "MATH 51-1", Teacher: "Ada Lovelace", ClassNumber: "1", Time: "MWF 9:15-10:20", Reasoning: "Highest rated."},
		},
		Warnings: []model.Warning{{Code: model.WarnLookupMiss, Subject: "Staff", Message: "no exact match"}},
		Usage:    model.TokenUsage{InputTokens: 1200, OutputTokens: 300, Cost: 0.0123},
	}
}

func TestWriteResult_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, sampleResult(), "text"))

	out := buf.String()
	assert.Contains(t, out, "run-42")
	assert.Contains(t, out, "full table used")
	assert.Contains(t, out, "$0.0123")
	assert.Contains(t, out, "MATH 51-1: Highest rated.")
	assert.Contains(t, out, "4.5")
	assert.Contains(t, out, "2.3")
	assert.Contains(t, out, "not_found")
	assert.Contains(t, out, "[lookup_miss] Staff no exact match")
}

func TestWriteResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, sampleResult(), "json"))

	var decoded model.PlanResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-42", decoded.RunID)
	require.Len(t, decoded.Recommendations, 1)
	assert.Equal(t, "1", decoded.Recommendations[0].ClassNumber)
}

func TestWriteResult_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, sampleResult(), "yaml"))

	out := buf.String()
	assert.Contains(t, out, "run_id: run-42")
	assert.Contains(t, out, `classNumber: "1"`)

	var generic map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &generic))
	assert.Equal(t, 3, generic["section_count"])
}

func TestWriteResult_UnknownFormat(t *testing.T) {
	err := writeResult(&bytes.Buffer{}, sampleResult(), "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

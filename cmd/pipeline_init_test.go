//go:build !integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/classify/internal/config"
)

func TestPipelineEnv_Close_Nil(t *testing.T) {
	pe := &pipelineEnv{}
	assert.NotPanics(t, func() {
		pe.Close()
	})
}

func TestInitStore_SQLite(t *testing.T) {
	cfg = &config.Config{
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "test.db"),
		},
	}

	st, err := initStore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st)

	pe := &pipelineEnv{Store: st}
	assert.NotPanics(t, func() {
		pe.Close()
	})
}

func TestInitStore_SQLiteDefaultDSN(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(origDir) //nolint:errcheck

	cfg = &config.Config{Store: config.StoreConfig{Driver: "sqlite"}}

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, err = os.Stat(filepath.Join(tmpDir, "classify.db"))
	assert.NoError(t, err)
}

func TestInitStore_UnsupportedDriver(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "mysql"}}

	st, err := initStore(context.Background())
	assert.Nil(t, st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestInitPipeline_FailsValidation(t *testing.T) {
	cfg = &config.Config{
		Model:      config.ModelConfig{Provider: "anthropic"},
		RateMyProf: config.RateMyProfConfig{SchoolID: "U2Nob29sLTg4Mg=="},
	}

	env, err := initPipeline(context.Background())
	assert.Nil(t, env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key")
}

func TestInitPipeline_SQLite(t *testing.T) {
	cfg = &config.Config{
		Model:      config.ModelConfig{Provider: "openai", MaxTokens: 512, Temperature: 0.5, TopP: 0.9},
		OpenAI:     config.OpenAIConfig{Key: "sk-test", Model: "gpt-4.1-mini", BaseURL: "http://127.0.0.1:1/v1"},
		RateMyProf: config.RateMyProfConfig{SchoolID: "U2Nob29sLTg4Mg==", BaseURL: "http://127.0.0.1:1/graphql"},
		Pipeline:   config.PipelineConfig{LookupConcurrency: 2, LookupTimeoutSecs: 5},
		Store:      config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "env.db")},
		Sheet:      config.SheetConfig{SkipRows: 1, UnitsCol: -1},
	}

	env, err := initPipeline(context.Background())
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Planner)
	assert.NotNil(t, env.Lookup)
	assert.NotNil(t, env.Fetcher)
	assert.Nil(t, env.Calendar)
}

func TestInitModel_Providers(t *testing.T) {
	for _, tt := range []struct {
		provider string
		name     string
	}{
		{"anthropic", "claude-sonnet-4-5-20250929"},
		{"openai", "gpt-4.1-mini"},
		{"gemini", "gemini-2.5-flash"},
	} {
		t.Run(tt.provider, func(t *testing.T) {
			cfg = &config.Config{
				Model:     config.ModelConfig{Provider: tt.provider},
				Anthropic: config.AnthropicConfig{Key: "k", Model: "claude-sonnet-4-5-20250929"},
				OpenAI:    config.OpenAIConfig{Key: "k", Model: "gpt-4.1-mini"},
				Gemini:    config.GeminiConfig{Key: "k", Model: "gemini-2.5-flash"},
			}
			m, err := initModel(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.name, m.Name())
		})
	}
}

func TestInitModel_Unknown(t *testing.T) {
	cfg = &config.Config{Model: config.ModelConfig{Provider: "bedrock"}}
	_, err := initModel(context.Background())
	assert.Error(t, err)
}

func TestPlannerConfig_FallsBackToMaxTokens(t *testing.T) {
	cfg = &config.Config{
		Model:    config.ModelConfig{MaxTokens: 512, RecommendMaxTokens: 2048, Temperature: 0.5, TopP: 0.9},
		Pipeline: config.PipelineConfig{ValidateSections: true},
	}

	pc := plannerConfig()
	assert.Equal(t, int64(512), pc.ExtractMaxTokens)
	assert.Equal(t, int64(2048), pc.RecommendMaxTokens)
	require.NotNil(t, pc.Temperature)
	assert.InDelta(t, 0.5, *pc.Temperature, 0.001)
	assert.InDelta(t, 0.9, *pc.TopP, 0.001)
	assert.True(t, pc.ValidateSections)
}

func TestSheetLayout(t *testing.T) {
	cfg = &config.Config{Sheet: config.SheetConfig{SheetName: "Fall", SkipRows: 2, SectionCol: 3, UnitsCol: 7}}

	l := sheetLayout()
	assert.Equal(t, "Fall", l.SheetName)
	assert.Equal(t, 2, l.SkipRows)
	assert.Equal(t, 3, l.SectionCol)
	assert.Equal(t, 7, l.UnitsCol)
}

func TestCalendarTerm(t *testing.T) {
	cfg = &config.Config{Calendar: config.CalendarConfig{TimeZone: "America/Los_Angeles", QuarterWeeks: 10}}
	term, err := calendarTerm()
	require.NoError(t, err)
	assert.Nil(t, term)

	cfg.Calendar.QuarterStart = "2025-09-22"
	term, err = calendarTerm()
	require.NoError(t, err)
	require.NotNil(t, term)
	assert.Equal(t, 10, term.Weeks)

	cfg.Calendar.QuarterStart = "September"
	_, err = calendarTerm()
	assert.Error(t, err)
}

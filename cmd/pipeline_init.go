package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/classify/internal/calendar"
	"github.com/sells-group/classify/internal/fetcher"
	"github.com/sells-group/classify/internal/llm"
	"github.com/sells-group/classify/internal/model"
	"github.com/sells-group/classify/internal/professor"
	"github.com/sells-group/classify/internal/schedule"
	"github.com/sells-group/classify/internal/store"
	anthropicpkg "github.com/sells-group/classify/pkg/anthropic"
	"github.com/sells-group/classify/pkg/gcal"
	"github.com/sells-group/classify/pkg/gemini"
	"github.com/sells-group/classify/pkg/openai"
	"github.com/sells-group/classify/pkg/ratemyprof"
)

// pipelineEnv holds the initialized store, clients, and planner needed by
// the plan and serve commands.
type pipelineEnv struct {
	Store    store.Store
	Planner  *schedule.Planner
	Lookup   *professor.Lookup
	Fetcher  fetcher.Fetcher
	Layout   fetcher.Layout
	Calendar *calendar.Service // nil when no calendar token is configured
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// LoadSections reads the configured section table, or location when set.
func (pe *pipelineEnv) LoadSections(ctx context.Context, location string) ([]model.Section, error) {
	if location == "" {
		location = cfg.Sheet.Path
	}
	return fetcher.LoadSections(ctx, pe.Fetcher, location, pe.Layout)
}

// initPipeline sets up the store, model, rating lookup, and planner.
// Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate("plan"); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	m, err := initModel(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	lookup := initLookup(st)
	joiner := schedule.NewJoiner(lookup,
		schedule.WithConcurrency(cfg.Pipeline.LookupConcurrency),
		schedule.WithLookupTimeout(time.Duration(cfg.Pipeline.LookupTimeoutSecs)*time.Second),
		schedule.WithCommentCap(cfg.RateMyProf.CommentCap),
	)
	planner := schedule.NewPlanner(m, joiner, st, plannerConfig())

	env := &pipelineEnv{
		Store:   st,
		Planner: planner,
		Lookup:  lookup,
		Fetcher: initFetcher(),
		Layout:  sheetLayout(),
	}

	if cfg.Calendar.AccessToken != "" {
		svc, err := initCalendar()
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		env.Calendar = svc
		zap.L().Info("google calendar export enabled")
	} else {
		zap.L().Debug("CLASSIFY_CALENDAR_ACCESS_TOKEN not set, calendar export disabled")
	}

	zap.L().Info("pipeline initialized",
		zap.String("provider", cfg.Model.Provider),
		zap.String("model", m.Name()),
		zap.String("store", cfg.Store.Driver),
	)
	return env, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "classify.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initModel builds the generative model for the configured provider.
func initModel(ctx context.Context) (llm.Model, error) {
	switch cfg.Model.Provider {
	case "anthropic":
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		return llm.NewAnthropicModel(client, cfg.Anthropic.Model), nil
	case "openai":
		opts := []openai.Option{openai.WithModel(cfg.OpenAI.Model)}
		if cfg.OpenAI.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		return llm.NewOpenAIModel(openai.NewClient(cfg.OpenAI.Key, opts...), cfg.OpenAI.Model), nil
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.Gemini.Key, gemini.WithModel(cfg.Gemini.Model))
		if err != nil {
			return nil, eris.Wrap(err, "init gemini")
		}
		return llm.NewGeminiModel(client, cfg.Gemini.Model), nil
	default:
		return nil, eris.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}

// initLookup builds the rating lookup. st may be nil, which disables the
// profile cache.
func initLookup(st store.Store) *professor.Lookup {
	client := ratemyprof.NewClient(cfg.RateMyProf.SchoolID,
		ratemyprof.WithBaseURL(cfg.RateMyProf.BaseURL),
		ratemyprof.WithSearchCount(cfg.RateMyProf.SearchCount),
		ratemyprof.WithCommentCount(cfg.RateMyProf.CommentCount),
		ratemyprof.WithTimeout(time.Duration(cfg.RateMyProf.TimeoutSecs)*time.Second),
		ratemyprof.WithRateLimit(cfg.RateMyProf.RequestsPerSecond),
	)
	ttl := time.Duration(cfg.Pipeline.ProfileCacheTTLHours) * time.Hour
	breaker := professor.NewBreaker(cfg.Pipeline.BreakerThreshold,
		time.Duration(cfg.Pipeline.BreakerCooldownSecs)*time.Second)
	return professor.NewLookup(client, st, ttl, professor.WithBreaker(breaker))
}

func initFetcher() fetcher.Fetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
}

func initCalendar() (*calendar.Service, error) {
	client := gcal.NewClient(cfg.Calendar.AccessToken,
		gcal.WithBaseURL(cfg.Calendar.BaseURL),
		gcal.WithMaxRetries(cfg.Calendar.MaxRetries),
	)
	return calendar.NewService(client, cfg.Calendar.TimeZone)
}

// calendarTerm returns the configured quarter, or nil when no quarter start
// date is set.
func calendarTerm() (*calendar.Term, error) {
	if cfg.Calendar.QuarterStart == "" {
		return nil, nil
	}
	term, err := calendar.NewTerm(cfg.Calendar.QuarterStart, cfg.Calendar.QuarterWeeks, cfg.Calendar.TimeZone)
	if err != nil {
		return nil, err
	}
	return &term, nil
}

func sheetLayout() fetcher.Layout {
	return fetcher.Layout{
		SheetName:     cfg.Sheet.SheetName,
		SkipRows:      cfg.Sheet.SkipRows,
		SectionCol:    cfg.Sheet.SectionCol,
		TitleCol:      cfg.Sheet.TitleCol,
		InstructorCol: cfg.Sheet.InstructorCol,
		EnrollmentCol: cfg.Sheet.EnrollmentCol,
		MeetingCol:    cfg.Sheet.MeetingCol,
		LocationCol:   cfg.Sheet.LocationCol,
		UnitsCol:      cfg.Sheet.UnitsCol,
	}
}

func plannerConfig() schedule.PlannerConfig {
	temp := cfg.Model.Temperature
	topP := cfg.Model.TopP
	pc := schedule.PlannerConfig{
		ExtractMaxTokens:   cfg.Model.ExtractMaxTokens,
		RecommendMaxTokens: cfg.Model.RecommendMaxTokens,
		Temperature:        &temp,
		TopP:               &topP,
		ValidateSections:   cfg.Pipeline.ValidateSections,
	}
	if pc.ExtractMaxTokens <= 0 {
		pc.ExtractMaxTokens = cfg.Model.MaxTokens
	}
	if pc.RecommendMaxTokens <= 0 {
		pc.RecommendMaxTokens = cfg.Model.MaxTokens
	}
	return pc
}

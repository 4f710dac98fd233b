package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/classify/internal/fetcher"
	"github.com/sells-group/classify/internal/llm"
	"github.com/sells-group/classify/internal/model"
	"github.com/sells-group/classify/internal/store"
)

var (
	// ErrInvalidRequest is returned when a plan request is incomplete.
	ErrInvalidRequest = errors.New("schedule: invalid plan request")
	// ErrNoCandidates is returned when no valid section survives extraction.
	ErrNoCandidates = errors.New("schedule: model proposed no valid sections")
)

// PlannerConfig holds model sampling settings and pipeline switches.
type PlannerConfig struct {
	ExtractMaxTokens   int64
	RecommendMaxTokens int64
	Temperature        *float64
	TopP               *float64
	ValidateSections   bool
}

// Planner runs the two-call scheduling pipeline for one request.
type Planner struct {
	model  llm.Model
	joiner *Joiner
	store  store.Store
	cfg    PlannerConfig
}

// NewPlanner creates a Planner. st may be nil, in which case runs are not
// persisted.
func NewPlanner(m llm.Model, joiner *Joiner, st store.Store, cfg PlannerConfig) *Planner {
	return &Planner{model: m, joiner: joiner, store: st, cfg: cfg}
}

// ValidateRequest checks that a request names at least one course, a
// quarter, one day, and a time preference.
func ValidateRequest(req model.PlanRequest) error {
	var missing []string
	if len(ParseKeywords(req.Keywords())) == 0 {
		missing = append(missing, "courses")
	}
	if strings.TrimSpace(req.Quarter) == "" {
		missing = append(missing, "quarter")
	}
	if len(req.DaysOfWeek) == 0 {
		missing = append(missing, "days_of_week")
	}
	if strings.TrimSpace(req.TimePreference) == "" {
		missing = append(missing, "time_preference")
	}
	if len(missing) > 0 {
		return eris.Wrapf(ErrInvalidRequest, "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Plan filters the section table, asks the model for candidate sections,
// joins them with instructor profiles and asks the model for one pick per
// class. Record-level problems become warnings; stage-level failures stop
// the run and are returned.
func (p *Planner) Plan(ctx context.Context, req model.PlanRequest, sections []model.Section) (*model.PlanResult, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	result := &model.PlanResult{}
	if p.store != nil {
		run, err := p.store.CreateRun(ctx, req)
		if err != nil {
			return nil, eris.Wrap(err, "schedule: create run")
		}
		result.RunID = run.ID
	}
	log := zap.L().With(zap.String("run_id", result.RunID))

	if err := p.plan(ctx, log, req, sections, result); err != nil {
		log.Error("schedule: run failed", zap.Error(err))
		if p.store != nil && result.RunID != "" {
			if ferr := p.store.FailRun(context.WithoutCancel(ctx), result.RunID, err.Error()); ferr != nil {
				log.Warn("schedule: failed to record run failure", zap.Error(ferr))
			}
		}
		return nil, err
	}

	if p.store != nil {
		if err := p.store.UpdateRunResult(ctx, result.RunID, result); err != nil {
			return nil, eris.Wrap(err, "schedule: save run result")
		}
	}
	log.Info("schedule: run complete",
		zap.Int("sections", result.SectionCount),
		zap.Int("candidates", result.Comparison.Len()),
		zap.Int("recommendations", len(result.Recommendations)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Float64("cost_usd", result.Usage.Cost),
	)
	return result, nil
}

func (p *Planner) plan(ctx context.Context, log *zap.Logger, req model.PlanRequest, sections []model.Section, result *model.PlanResult) error {
	if len(sections) == 0 {
		return eris.New("schedule: section table is empty")
	}

	// Filter.
	filtered, degraded := FilterSections(sections, req.Keywords())
	result.Degraded = degraded
	result.SectionCount = len(filtered)
	if degraded {
		log.Warn("schedule: keywords matched no sections, using full table", zap.Strings("courses", req.Courses))
		result.Warnings = append(result.Warnings, model.Warning{
			Code:    model.WarnDegradedFilter,
			Subject: req.Keywords(),
			Message: "none of the requested courses matched a section; all sections were considered",
		})
	}

	// Extract candidate sections.
	p.setStatus(ctx, log, result.RunID, model.RunStatusExtracting)
	text, err := p.complete(ctx, result, BuildExtractionPrompt(req, fetcher.SummarizeSections(filtered)), p.cfg.ExtractMaxTokens)
	if err != nil {
		return eris.Wrap(err, "schedule: extraction call")
	}
	raw, err := ExtractArray(text)
	if err != nil {
		return eris.Wrap(err, "schedule: extract sections")
	}
	records, bad, err := DecodeSectionRecords(raw)
	if err != nil {
		return eris.Wrap(err, "schedule: decode sections")
	}
	result.Warnings = append(result.Warnings, malformedWarnings(bad)...)
	if len(records) == 0 && len(bad) > 0 {
		return eris.Wrap(bad[0], "schedule: decode sections")
	}
	if p.cfg.ValidateSections {
		// Candidates must come from the sections the model was shown.
		var warns []model.Warning
		records, warns = ValidateSections(records, model.NewSectionSet(filtered))
		result.Warnings = append(result.Warnings, warns...)
	}
	if len(records) == 0 {
		return ErrNoCandidates
	}
	result.Records = records

	// Join with instructor profiles.
	p.setStatus(ctx, log, result.RunID, model.RunStatusLookingUp)
	comparison, warns := p.joiner.Join(ctx, records)
	result.Comparison = comparison
	result.Warnings = append(result.Warnings, warns...)

	// Recommend.
	p.setStatus(ctx, log, result.RunID, model.RunStatusRecommending)
	prompt, err := BuildRecommendationPrompt(req, comparison)
	if err != nil {
		return err
	}
	text, err = p.complete(ctx, result, prompt, p.cfg.RecommendMaxTokens)
	if err != nil {
		return eris.Wrap(err, "schedule: recommendation call")
	}
	raw, err = ExtractArray(text)
	if err != nil {
		return eris.Wrap(err, "schedule: extract recommendations")
	}
	recs, bad, err := DecodeRecommendations(raw)
	if err != nil {
		return eris.Wrap(err, "schedule: decode recommendations")
	}
	result.Warnings = append(result.Warnings, malformedWarnings(bad)...)
	if len(recs) == 0 && len(bad) > 0 {
		return eris.Wrap(bad[0], "schedule: decode recommendations")
	}
	winners, warns := PickWinners(recs, comparison)
	result.Recommendations = winners
	result.Warnings = append(result.Warnings, warns...)

	return nil
}

func (p *Planner) complete(ctx context.Context, result *model.PlanResult, prompt string, maxTokens int64) (string, error) {
	resp, err := llm.Complete(ctx, p.model, llm.Request{
		System:      systemPrompt,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: p.cfg.Temperature,
		TopP:        p.cfg.TopP,
	})
	if err != nil {
		return "", err
	}
	result.Usage.Add(resp.Usage)
	return resp.Text, nil
}

func (p *Planner) setStatus(ctx context.Context, log *zap.Logger, runID string, status model.RunStatus) {
	log.Debug("schedule: run status", zap.String("status", string(status)))
	if p.store == nil || runID == "" {
		return
	}
	if err := p.store.UpdateRunStatus(ctx, runID, status); err != nil {
		log.Warn("schedule: failed to update run status", zap.String("status", string(status)), zap.Error(err))
	}
}

// UserMessage turns a planning error into a message suitable for display.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return "Incomplete request: " + strings.TrimSuffix(err.Error(), ": "+ErrInvalidRequest.Error())
	case errors.Is(err, llm.ErrEmptyResponse):
		return "The scheduling model returned an empty response. Please try again."
	case errors.Is(err, ErrExtraction):
		return "The scheduling model's answer could not be read as a list of sections. Please try again."
	case errors.Is(err, ErrMalformedRecord):
		var re *RecordError
		if errors.As(err, &re) && re.Field != "" {
			return fmt.Sprintf("The scheduling model returned a %s without a valid %q. Please try again.", re.Kind, re.Field)
		}
		return "The scheduling model returned incomplete section data. Please try again."
	case errors.Is(err, ErrNoCandidates):
		return "No matching sections were found for the requested courses."
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "The request timed out."
	default:
		return "Schedule generation failed: the model service could not be reached."
	}
}

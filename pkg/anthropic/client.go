// Package anthropic streams single-turn prompts through the Anthropic
// Messages API.
package anthropic

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client streams a prompt to a Claude model.
type Client interface {
	StreamPrompt(ctx context.Context, req PromptRequest) (PromptStream, error)
}

// PromptRequest is one user turn with an optional system prompt. Nil
// sampling fields are left to the API default.
type PromptRequest struct {
	Model       string
	MaxTokens   int64
	System      string
	Prompt      string
	Temperature *float64
	TopP        *float64
}

// PromptStream yields text deltas in arrival order. Result is only complete
// once Next has returned false and Err is nil.
type PromptStream interface {
	Next() bool
	Delta() string
	Result() *PromptResult
	Err() error
	Close() error
}

// PromptResult summarizes a finished stream.
type PromptResult struct {
	ID         string
	Model      string
	Text       string
	StopReason string
	Usage      Usage
}

// Truncated reports whether generation stopped at the token limit.
func (r *PromptResult) Truncated() bool {
	return r != nil && r.StopReason == string(sdk.StopReasonMaxTokens)
}

// Usage is the token count of one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

type rate struct {
	inPerMTok  float64
	outPerMTok float64
}

var rates = map[string]rate{
	"claude-haiku-4-5-20251001":  {0.80, 4.00},
	"claude-sonnet-4-5-20250929": {3.00, 15.00},
	"claude-opus-4-6":            {15.00, 75.00},
}

// Cost estimates the USD cost of u for the given model, or 0 when the model
// has no known rate.
func (u Usage) Cost(model string) float64 {
	r, ok := rates[model]
	if !ok {
		return 0
	}
	return float64(u.InputTokens)/1e6*r.inPerMTok + float64(u.OutputTokens)/1e6*r.outPerMTok
}

// Log records token usage and estimated cost for a pipeline stage.
func (u Usage) Log(model, stage string) {
	zap.L().Info("anthropic: usage",
		zap.String("model", model),
		zap.String("stage", stage),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Float64("estimated_cost_usd", u.Cost(model)),
	)
}

// Option configures the underlying SDK client.
type Option = option.RequestOption

type sdkClient struct {
	client sdk.Client
}

// NewClient creates a Client backed by anthropic-sdk-go.
func NewClient(apiKey string, opts ...Option) Client {
	return &sdkClient{
		client: sdk.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
	}
}

func (c *sdkClient) StreamPrompt(ctx context.Context, req PromptRequest) (PromptStream, error) {
	stream := c.client.Messages.NewStreaming(ctx, buildParams(req))
	if err := stream.Err(); err != nil {
		return nil, eris.Wrap(err, "anthropic: stream prompt")
	}
	return &promptStream{stream: stream}, nil
}

type promptStream struct {
	stream *ssestream.Stream[sdk.MessageStreamEventUnion]
	msg    sdk.Message
	delta  string
	err    error
}

func (s *promptStream) Next() bool {
	if s.err != nil || !s.stream.Next() {
		return false
	}
	event := s.stream.Current()
	if err := s.msg.Accumulate(event); err != nil {
		s.err = eris.Wrap(err, "anthropic: accumulate event")
		return false
	}

	s.delta = ""
	if ev, ok := event.AsAny().(sdk.ContentBlockDeltaEvent); ok {
		if td, ok := ev.Delta.AsAny().(sdk.TextDelta); ok {
			s.delta = td.Text
		}
	}
	return true
}

func (s *promptStream) Delta() string { return s.delta }

func (s *promptStream) Result() *PromptResult { return toResult(&s.msg) }

func (s *promptStream) Err() error {
	if s.err != nil {
		return s.err
	}
	if err := s.stream.Err(); err != nil {
		return eris.Wrap(err, "anthropic: stream")
	}
	return nil
}

func (s *promptStream) Close() error { return s.stream.Close() }

func buildParams(req PromptRequest) sdk.MessageNewParams {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt))},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = sdk.Float(*req.TopP)
	}
	return params
}

func toResult(msg *sdk.Message) *PromptResult {
	r := &PromptResult{
		ID:         msg.ID,
		Model:      string(msg.Model),
		StopReason: string(msg.StopReason),
		Usage: Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
	for _, b := range msg.Content {
		if b.Type == "text" {
			r.Text += b.Text
		}
	}
	return r
}

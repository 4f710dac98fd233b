package llm

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/classify/internal/model"
	"github.com/sells-group/classify/pkg/anthropic"
	"github.com/sells-group/classify/pkg/gemini"
	"github.com/sells-group/classify/pkg/openai"
)

// AnthropicModel streams from the Anthropic Messages API.
type AnthropicModel struct {
	client anthropic.Client
	model  string
}

// NewAnthropicModel wraps an Anthropic client for the given model id.
func NewAnthropicModel(client anthropic.Client, modelID string) *AnthropicModel {
	return &AnthropicModel{client: client, model: modelID}
}

// Name returns the model id.
func (m *AnthropicModel) Name() string { return m.model }

// Stream starts a streamed message.
func (m *AnthropicModel) Stream(ctx context.Context, req Request) (Stream, error) {
	s, err := m.client.StreamPrompt(ctx, anthropic.PromptRequest{
		Model:       m.model,
		MaxTokens:   req.MaxTokens,
		System:      req.System,
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	})
	if err != nil {
		return nil, err
	}
	return &anthropicStream{PromptStream: s, model: m.model}, nil
}

type anthropicStream struct {
	anthropic.PromptStream
	model string
}

func (s *anthropicStream) Fragment() string { return s.Delta() }

func (s *anthropicStream) Usage() model.TokenUsage {
	res := s.Result()
	if res == nil {
		return model.TokenUsage{}
	}
	if res.Truncated() {
		zap.L().Warn("llm: response hit the token limit", zap.String("model", s.model))
	}
	res.Usage.Log(s.model, "stream")
	return model.TokenUsage{
		InputTokens:  res.Usage.InputTokens,
		OutputTokens: res.Usage.OutputTokens,
		Cost:         res.Usage.Cost(s.model),
	}
}

// OpenAIModel streams chat completions from OpenAI or a compatible gateway.
type OpenAIModel struct {
	client openai.Client
	model  string
}

// NewOpenAIModel wraps an OpenAI client for the given model id.
func NewOpenAIModel(client openai.Client, modelID string) *OpenAIModel {
	return &OpenAIModel{client: client, model: modelID}
}

// Name returns the model id.
func (m *OpenAIModel) Name() string { return m.model }

// Stream starts a streamed chat completion.
func (m *OpenAIModel) Stream(ctx context.Context, req Request) (Stream, error) {
	s, err := m.client.StreamChat(ctx, openai.ChatRequest{
		Model:       m.model,
		System:      req.System,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	})
	if err != nil {
		return nil, err
	}
	return &openaiStream{ChatStream: s}, nil
}

type openaiStream struct {
	openai.ChatStream
}

func (s *openaiStream) Fragment() string { return s.Delta() }

func (s *openaiStream) Usage() model.TokenUsage {
	u := s.ChatStream.Usage()
	return model.TokenUsage{InputTokens: u.PromptTokens, OutputTokens: u.CompletionTokens}
}

// GeminiModel streams generations from the Gemini API.
type GeminiModel struct {
	client gemini.Client
	model  string
}

// NewGeminiModel wraps a Gemini client for the given model id.
func NewGeminiModel(client gemini.Client, modelID string) *GeminiModel {
	return &GeminiModel{client: client, model: modelID}
}

// Name returns the model id.
func (m *GeminiModel) Name() string { return m.model }

// Stream starts a streamed generation.
func (m *GeminiModel) Stream(ctx context.Context, req Request) (Stream, error) {
	greq := gemini.GenerateRequest{
		Model:     m.model,
		System:    req.System,
		Prompt:    req.Prompt,
		MaxTokens: int32(req.MaxTokens), //nolint:gosec
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		greq.Temperature = &t
	}
	if req.TopP != nil {
		p := float32(*req.TopP)
		greq.TopP = &p
	}

	s, err := m.client.StreamGenerate(ctx, greq)
	if err != nil {
		return nil, err
	}
	return &geminiStream{GenerateStream: s}, nil
}

type geminiStream struct {
	gemini.GenerateStream
}

func (s *geminiStream) Fragment() string { return s.Delta() }

func (s *geminiStream) Usage() model.TokenUsage {
	u := s.GenerateStream.Usage()
	return model.TokenUsage{InputTokens: u.PromptTokens, OutputTokens: u.CandidatesTokens}
}

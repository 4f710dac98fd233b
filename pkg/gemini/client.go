package gemini

import (
	"context"
	"iter"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// Client streams text generations from the Gemini API.
type Client interface {
	StreamGenerate(ctx context.Context, req GenerateRequest) (GenerateStream, error)
}

// GenerateRequest is a single-turn generation request.
type GenerateRequest struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int32
	Temperature *float32
	TopP        *float32
}

// Usage reports token consumption for a streamed generation.
type Usage struct {
	PromptTokens     int64
	CandidatesTokens int64
}

// GenerateStream yields text fragments in arrival order.
type GenerateStream interface {
	Next() bool
	Delta() string
	Usage() Usage
	Err() error
	Close() error
}

// Option configures the client.
type Option func(*config)

type config struct {
	model   string
	baseURL string
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *config) {
		c.model = model
	}
}

type sdkClient struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client backed by the genai SDK.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (Client, error) {
	if apiKey == "" {
		return nil, eris.New("gemini: api key is required")
	}

	cfg := config{model: defaultModel}
	for _, o := range opts {
		o(&cfg)
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}
	return &sdkClient{client: client, model: cfg.model}, nil
}

func (c *sdkClient) StreamGenerate(ctx context.Context, req GenerateRequest) (GenerateStream, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	seq := c.client.Models.GenerateContentStream(ctx, model, contents, toConfig(req))

	next, stop := iter.Pull2(seq)
	return &pullStream{next: next, stop: stop}, nil
}

func toConfig(req GenerateRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = req.MaxTokens
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	return cfg
}

// pullStream adapts the SDK's push iterator to a pull-style stream.
type pullStream struct {
	next  func() (*genai.GenerateContentResponse, error, bool)
	stop  func()
	delta string
	usage Usage
	err   error
	done  bool
}

func (s *pullStream) Next() bool {
	if s.done {
		return false
	}
	resp, err, ok := s.next()
	if !ok {
		s.done = true
		return false
	}
	if err != nil {
		s.err = eris.Wrap(err, "gemini: stream")
		s.done = true
		return false
	}

	s.delta = resp.Text()
	if resp.UsageMetadata != nil {
		s.usage = Usage{
			PromptTokens:     int64(resp.UsageMetadata.PromptTokenCount),
			CandidatesTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return true
}

func (s *pullStream) Delta() string {
	return s.delta
}

func (s *pullStream) Usage() Usage {
	return s.usage
}

func (s *pullStream) Err() error {
	return s.err
}

func (s *pullStream) Close() error {
	s.stop()
	return nil
}

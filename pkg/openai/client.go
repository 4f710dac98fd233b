package openai

import (
	"context"
	"net/http"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/rotisserie/eris"
)

const defaultModel = "gpt-4.1-mini"

// Client streams chat completions from OpenAI or any OpenAI-compatible
// gateway.
type Client interface {
	StreamChat(ctx context.Context, req ChatRequest) (ChatStream, error)
}

// ChatRequest is a single-turn chat request.
type ChatRequest struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int64
	Temperature *float64
	TopP        *float64
}

// Usage reports token consumption for a streamed completion. It is only
// populated after the final chunk has been read.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// ChatStream yields content fragments in arrival order.
type ChatStream interface {
	Next() bool
	Delta() string
	Usage() Usage
	Err() error
	Close() error
}

// Option configures the client.
type Option func(*sdkClient)

// WithBaseURL points the client at an OpenAI-compatible gateway.
func WithBaseURL(url string) Option {
	return func(c *sdkClient) {
		c.opts = append(c.opts, option.WithBaseURL(url))
	}
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *sdkClient) {
		c.model = model
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *sdkClient) {
		c.opts = append(c.opts, option.WithHTTPClient(hc))
	}
}

// WithMaxRetries sets the SDK transport retry count.
func WithMaxRetries(n int) Option {
	return func(c *sdkClient) {
		c.opts = append(c.opts, option.WithMaxRetries(n))
	}
}

type sdkClient struct {
	client sdk.Client
	model  string
	opts   []option.RequestOption
}

// NewClient creates an OpenAI chat client backed by the official SDK.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		model: defaultModel,
		opts:  []option.RequestOption{option.WithAPIKey(apiKey)},
	}
	for _, o := range opts {
		o(c)
	}
	c.client = sdk.NewClient(c.opts...)
	return c
}

func (c *sdkClient) StreamChat(ctx context.Context, req ChatRequest) (ChatStream, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.toParams(req))
	if err := stream.Err(); err != nil {
		return nil, eris.Wrap(err, "openai: stream chat")
	}
	return &sdkChatStream{stream: stream}, nil
}

func (c *sdkClient) toParams(req ChatRequest) sdk.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = c.model
	}

	var msgs []sdk.ChatCompletionMessageParamUnion
	if req.System != "" {
		msgs = append(msgs, sdk.SystemMessage(req.System))
	}
	msgs = append(msgs, sdk.UserMessage(req.Prompt))

	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(model),
		Messages: msgs,
		StreamOptions: sdk.ChatCompletionStreamOptionsParam{
			IncludeUsage: sdk.Bool(true),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = sdk.Int(req.MaxTokens)
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = sdk.Float(*req.TopP)
	}
	return params
}

type sdkChatStream struct {
	stream *ssestream.Stream[sdk.ChatCompletionChunk]
	delta  string
	usage  Usage
}

func (s *sdkChatStream) Next() bool {
	if !s.stream.Next() {
		return false
	}
	chunk := s.stream.Current()

	s.delta = ""
	if len(chunk.Choices) > 0 {
		s.delta = chunk.Choices[0].Delta.Content
	}
	// The usage chunk arrives last with an empty choice list.
	if chunk.Usage.TotalTokens > 0 {
		s.usage = Usage{
			PromptTokens:     chunk.Usage.PromptTokens,
			CompletionTokens: chunk.Usage.CompletionTokens,
		}
	}
	return true
}

func (s *sdkChatStream) Delta() string {
	return s.delta
}

func (s *sdkChatStream) Usage() Usage {
	return s.usage
}

func (s *sdkChatStream) Err() error {
	if err := s.stream.Err(); err != nil {
		return eris.Wrap(err, "openai: stream")
	}
	return nil
}

func (s *sdkChatStream) Close() error {
	return s.stream.Close()
}

// Package llm abstracts the generative-model providers behind a single
// streaming interface and accumulates streamed fragments into complete text.
package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/classify/internal/model"
)

// ErrEmptyResponse is returned when a model stream completes without
// producing any text.
var ErrEmptyResponse = errors.New("llm: empty model response")

// Request is a provider-neutral single-turn generation request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int64
	Temperature *float64
	TopP        *float64
}

// Stream yields text fragments in arrival order. Usage is only meaningful
// after Next has returned false.
type Stream interface {
	Next() bool
	Fragment() string
	Usage() model.TokenUsage
	Err() error
	Close() error
}

// Model is a generative model that can stream a response.
type Model interface {
	Name() string
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Response is a fully accumulated model response.
type Response struct {
	Text  string
	Usage model.TokenUsage
}

// Complete streams a response from m and accumulates every fragment, in
// arrival order, until the stream signals completion. A transport failure
// at any point is returned as-is; a stream that finished without text
// yields ErrEmptyResponse.
func Complete(ctx context.Context, m Model, req Request) (*Response, error) {
	stream, err := m.Stream(ctx, req)
	if err != nil {
		return nil, eris.Wrapf(err, "llm: start %s stream", m.Name())
	}
	defer stream.Close() //nolint:errcheck

	var buf strings.Builder
	for stream.Next() {
		buf.WriteString(stream.Fragment())
	}
	if err := stream.Err(); err != nil {
		return nil, eris.Wrapf(err, "llm: %s stream", m.Name())
	}

	text := buf.String()
	if strings.TrimSpace(text) == "" {
		return nil, eris.Wrapf(ErrEmptyResponse, "llm: %s", m.Name())
	}

	usage := stream.Usage()
	zap.L().Debug("llm: response complete",
		zap.String("model", m.Name()),
		zap.Int("chars", len(text)),
		zap.Int64("input_tokens", usage.InputTokens),
		zap.Int64("output_tokens", usage.OutputTokens),
	)

	return &Response{Text: text, Usage: usage}, nil
}

package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxSnippet bounds the raw model text carried by an ExtractionError.
const maxSnippet = 200

// ErrExtraction matches any ExtractionError via errors.Is.
var ErrExtraction = errors.New("schedule: no JSON array in model output")

// ExtractionError reports that no parseable JSON array was found in model
// output. Snippet holds at most the first 200 characters of the text.
type ExtractionError struct {
	Snippet string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("schedule: no JSON array in model output (starts with %q)", e.Snippet)
}

// Is reports whether target is ErrExtraction.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

// arrayCandidate matches from a "[" to the nearest following "]", across
// lines.
var arrayCandidate = regexp.MustCompile(`(?s)\[.*?\]`)

// ExtractArray recovers a JSON array from free-form model text. The whole
// trimmed text is tried first; failing that, each bracket-delimited
// candidate is tried in the order found and the first that parses as an
// array wins.
func ExtractArray(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if isArray(trimmed) {
		return json.RawMessage(trimmed), nil
	}

	for _, candidate := range arrayCandidate.FindAllString(text, -1) {
		if isArray(candidate) {
			return json.RawMessage(candidate), nil
		}
	}

	return nil, &ExtractionError{Snippet: truncate(text, maxSnippet)}
}

func isArray(s string) bool {
	var v []any
	return json.Unmarshal([]byte(s), &v) == nil && v != nil
}

// truncate returns at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/sells-group/classify/internal/model"
)

// ErrMalformedRecord matches any RecordError via errors.Is.
var ErrMalformedRecord = errors.New("schedule: malformed record")

// RecordError identifies the record and field that failed to decode.
type RecordError struct {
	Kind   string // "section" or "recommendation"
	Index  int
	Field  string
	Reason string
}

func (e *RecordError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schedule: %s record %d: %s", e.Kind, e.Index, e.Reason)
	}
	return fmt.Sprintf("schedule: %s record %d: field %q %s", e.Kind, e.Index, e.Field, e.Reason)
}

// Is reports whether target is ErrMalformedRecord.
func (e *RecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

var (
	sectionFields        = []string{"classNumber", "courseSection", "teacher", "time"}
	recommendationFields = []string{"courseSection", "teacher", "classNumber", "time", "reasoning"}

	sectionSchema        = compileRecordSchema("section.json", sectionFields, "classNumber", "courseSection")
	recommendationSchema = compileRecordSchema("recommendation.json", recommendationFields, "classNumber", "courseSection")
)

// compileRecordSchema builds a schema for a flat object whose fields are all
// required strings. Fields listed in nonEmpty must also be non-blank.
func compileRecordSchema(name string, fields []string, nonEmpty ...string) *jsonschema.Schema {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f] = map[string]any{"type": "string"}
	}
	for _, f := range nonEmpty {
		props[f] = map[string]any{"type": "string", "pattern": `\S`}
	}

	raw, err := json.Marshal(map[string]any{
		"type":       "object",
		"required":   fields,
		"properties": props,
	})
	if err != nil {
		panic(err)
	}
	return jsonschema.MustCompileString(name, string(raw))
}

// DecodeSectionRecords decodes an extracted array into section records.
// Every element must carry classNumber, courseSection, teacher and time as
// strings. Elements that do not are skipped and returned as RecordErrors
// naming their index and field; only a payload that is not an array fails.
func DecodeSectionRecords(raw json.RawMessage) ([]model.SectionRecord, []*RecordError, error) {
	var out []model.SectionRecord
	bad, err := decodeRecords(raw, "section", sectionFields, sectionSchema, func(b []byte) error {
		var r model.SectionRecord
		if err := json.Unmarshal(b, &r); err != nil {
			return err
		}
		r.CourseSection = strings.TrimSpace(r.CourseSection)
		r.ClassNumber = strings.TrimSpace(r.ClassNumber)
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, bad, nil
}

// DecodeRecommendations decodes an extracted array into recommendation
// records with the same per-record checks as DecodeSectionRecords.
func DecodeRecommendations(raw json.RawMessage) ([]model.RecommendationRecord, []*RecordError, error) {
	var out []model.RecommendationRecord
	bad, err := decodeRecords(raw, "recommendation", recommendationFields, recommendationSchema, func(b []byte) error {
		var r model.RecommendationRecord
		if err := json.Unmarshal(b, &r); err != nil {
			return err
		}
		r.CourseSection = strings.TrimSpace(r.CourseSection)
		r.ClassNumber = strings.TrimSpace(r.ClassNumber)
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, bad, nil
}

func decodeRecords(raw json.RawMessage, kind string, fields []string, schema *jsonschema.Schema, add func([]byte) error) ([]*RecordError, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, eris.Wrapf(err, "schedule: decode %s array", kind)
	}

	var bad []*RecordError
	for i, elem := range elems {
		if re := checkRecord(elem, kind, i, fields, schema); re != nil {
			bad = append(bad, re)
			continue
		}
		if err := add(elem); err != nil {
			bad = append(bad, &RecordError{Kind: kind, Index: i, Reason: err.Error()})
		}
	}
	return bad, nil
}

func checkRecord(elem json.RawMessage, kind string, i int, fields []string, schema *jsonschema.Schema) *RecordError {
	var obj map[string]any
	if err := json.Unmarshal(elem, &obj); err != nil || obj == nil {
		return &RecordError{Kind: kind, Index: i, Reason: "is not an object"}
	}
	for _, f := range fields {
		if _, ok := obj[f]; !ok {
			return &RecordError{Kind: kind, Index: i, Field: f, Reason: "is missing"}
		}
	}
	if err := schema.Validate(obj); err != nil {
		return &RecordError{Kind: kind, Index: i, Field: failingField(err), Reason: "is not a non-empty string"}
	}
	return nil
}

// malformedWarnings turns skipped records into caller-visible warnings.
func malformedWarnings(bad []*RecordError) []model.Warning {
	out := make([]model.Warning, 0, len(bad))
	for _, re := range bad {
		out = append(out, model.Warning{
			Code:    model.WarnMalformedRecord,
			Subject: fmt.Sprintf("%s record %d", re.Kind, re.Index),
			Message: re.Error(),
		})
	}
	return out
}

// failingField returns the top-level property named by the deepest cause
// of a schema validation error.
func failingField(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return ""
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := strings.TrimPrefix(ve.InstanceLocation, "/")
	if i := strings.Index(loc, "/"); i >= 0 {
		loc = loc[:i]
	}
	return loc
}

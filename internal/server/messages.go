package server

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
	"github.com/joseph-ayodele/invoice-extractor/internal/resolve"
	"github.com/joseph-ayodele/invoice-extractor/internal/tokenize"
)

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

func intField(in *structpb.Struct, name string) (int, error) {
	v, ok := in.GetFields()[name]
	if !ok {
		return 0, nil
	}
	n, isNum := v.GetKind().(*structpb.Value_NumberValue)
	if !isNum || n.NumberValue != math.Trunc(n.NumberValue) || n.NumberValue < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer: %w", name, common.ErrInvalidInput)
	}
	return int(n.NumberValue), nil
}

// spansFromStruct reads the optional "spans" list. A missing key yields nil
// (use the server's recognizer); an empty list yields no spans.
func spansFromStruct(in *structpb.Struct) ([]tokenize.Span, error) {
	v, ok := in.GetFields()["spans"]
	if !ok {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("spans must be a list: %w", common.ErrInvalidInput)
	}
	spans := make([]tokenize.Span, 0, len(list.GetValues()))
	for i, item := range list.GetValues() {
		s := item.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("spans[%d] must be an object: %w", i, common.ErrInvalidInput)
		}
		start, err := intField(s, "start")
		if err != nil {
			return nil, fmt.Errorf("spans[%d]: %w", i, err)
		}
		end, err := intField(s, "end")
		if err != nil {
			return nil, fmt.Errorf("spans[%d]: %w", i, err)
		}
		spans = append(spans, tokenize.Span{Label: stringField(s, "label"), Start: start, End: end})
	}
	return spans, nil
}

// recordToMap renders a record as {"vendor_name": {...} | null, ...}.
func recordToMap(rec resolve.Record) (map[string]any, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func valuesToMap(rec resolve.Record) map[string]any {
	out := make(map[string]any, len(constants.AllFields()))
	for k, v := range rec.Values() {
		out[k] = v
	}
	return out
}

func overlapsToList(rec resolve.Record) []any {
	out := []any{}
	for _, o := range rec.Overlaps() {
		out = append(out, map[string]any{"a": o.A.String(), "b": o.B.String()})
	}
	return out
}

func jobToMap(j *repository.ExtractJob) (map[string]any, error) {
	spans, err := recordToMap(j.Record)
	if err != nil {
		return nil, err
	}
	m := map[string]any{
		"job_id":       j.ID.String(),
		"source_path":  j.SourcePath,
		"format":       j.Format,
		"status":       string(j.Status),
		"method":       j.Method,
		"started_at":   j.StartedAt.UTC().Format(time.RFC3339Nano),
		"error":        j.ErrorMessage,
		"fields_found": j.FieldsFound,
		"values":       valuesToMap(j.Record),
		"spans":        spans,
	}
	if j.FinishedAt != nil {
		m["finished_at"] = j.FinishedAt.UTC().Format(time.RFC3339Nano)
	}
	return m, nil
}

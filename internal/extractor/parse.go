package extractor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

type replyTerm struct {
	Term       string `json:"term"`
	Value      string `json:"value"`
	Confidence int    `json:"confidence"`
	Evidence   string `json:"evidence"`
	Page       int    `json:"page"`
}

type reply struct {
	Results []replyTerm `json:"results"`
}

// parseTerms turns a model reply into extracted terms. The reply is
// normalized first, then validated.
func parseTerms(content string, schema *jsonschema.Schema) ([]domain.ExtractedTerm, error) {
	normalized, err := normalizeReply([]byte(stripCodeFence(content)))
	if err != nil {
		return nil, err
	}
	if err := validate(schema, normalized); err != nil {
		return nil, err
	}

	var r reply
	if err := json.Unmarshal(normalized, &r); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}

	terms := make([]domain.ExtractedTerm, 0, len(r.Results))
	for _, t := range r.Results {
		terms = append(terms, domain.ExtractedTerm{
			Page:       t.Page,
			Term:       strings.TrimSpace(t.Term),
			Value:      strings.TrimSpace(t.Value),
			Confidence: t.Confidence,
			Evidence:   strings.TrimSpace(t.Evidence),
		})
	}
	return terms, nil
}

// stripCodeFence removes a surrounding markdown code fence, if any
func stripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		s = s[nl+1:] // drop the info string, e.g. "json"
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// normalizeReply coerces the loose shapes models produce into the schema:
// a bare array is wrapped, numeric values become strings, fractional
// confidence becomes a percentage and a missing page becomes 1.
func normalizeReply(raw []byte) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("reply is not JSON: %w", err)
	}

	var m map[string]any
	switch t := doc.(type) {
	case []any:
		m = map[string]any{"results": t}
	case map[string]any:
		m = t
	default:
		return nil, fmt.Errorf("reply is not a JSON object")
	}

	items, ok := m["results"].([]any)
	if !ok {
		if m["results"] == nil {
			return nil, fmt.Errorf("reply has no results array")
		}
		return json.Marshal(m)
	}

	for _, item := range items {
		term, ok := item.(map[string]any)
		if !ok {
			continue
		}
		term["value"] = normalizeValue(term["value"])
		term["confidence"] = normalizeConfidence(term["confidence"])
		term["page"] = normalizePage(term["page"])
		if term["evidence"] == nil {
			term["evidence"] = ""
		}
	}

	return json.Marshal(m)
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return v
}

// normalizeConfidence maps 0-1 fractions to percent and clamps to 0-100
func normalizeConfidence(v any) any {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		if err != nil {
			return v
		}
		f = parsed
	default:
		return v
	}

	if f > 0 && f < 1 {
		f *= 100
	}
	return int(math.Round(math.Max(0, math.Min(100, f))))
}

func normalizePage(v any) any {
	switch t := v.(type) {
	case nil:
		return 1
	case float64:
		if t < 1 {
			return 1
		}
		return int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil && n >= 1 {
			return n
		}
		return 1
	}
	return v
}

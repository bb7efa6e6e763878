// Package textgen abstracts the text-generation capability used for term
// canonicalization and query interpretation. Backends return raw text that
// is expected to contain one JSON object; callers use ExtractObject and
// Decode to parse it defensively.
package textgen

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/gamedex/gamedex/pkg/errors"
)

// Generator produces raw text for a prompt. Implementations must honor
// context cancellation; callers bound each call with a timeout.
type Generator interface {
	// Name identifies the backend for logging.
	Name() string

	// Generate returns the model's raw output for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ExtractObject returns the first JSON-object-looking substring of raw,
// or raw itself when no braces are found. Models often wrap their JSON in
// prose or code fences.
func ExtractObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return raw
	}
	return raw[start : end+1]
}

// Decode parses data into v, trying strict JSON first and falling back to
// a lenient pass that tolerates trailing commas and comments. The error
// is a ParseError when both passes fail.
func Decode(data string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err == nil {
		return nil
	}

	standardized, err := hujson.Standardize([]byte(data))
	if err != nil {
		return errors.WrapParse("json", "generator output", err)
	}
	if err := json.Unmarshal(standardized, v); err != nil {
		return errors.WrapParse("json", "generator output", err)
	}
	return nil
}

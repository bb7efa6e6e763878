// Package query turns natural-language input into a structured filter. It
// combines deterministic phrase extraction for prices and release years
// with generator-backed extraction of genre, platform, and tag terms,
// which are then resolved against the canonical vocabulary.
package query

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gamedex/gamedex/internal/resolver"
	"github.com/gamedex/gamedex/internal/textgen"
	"github.com/gamedex/gamedex/pkg/games"
	"github.com/gamedex/gamedex/pkg/logging"
)

// DefaultTimeout bounds the term-extraction generation call.
const DefaultTimeout = 30 * time.Second

// Leftovers carries terms that could not be mapped to any canonical
// vocabulary entry. Callers may append them to the free-text query as a
// fallback signal to the provider's own search.
type Leftovers struct {
	Genres    []string `json:"genres"`
	Platforms []string `json:"platforms"`
	Tags      []string `json:"tags"`
}

// Empty reports whether nothing was left over.
func (l Leftovers) Empty() bool {
	return len(l.Genres) == 0 && len(l.Platforms) == 0 && len(l.Tags) == 0
}

// Terms returns all leftover terms as one list.
func (l Leftovers) Terms() []string {
	out := make([]string, 0, len(l.Genres)+len(l.Platforms)+len(l.Tags))
	out = append(out, l.Genres...)
	out = append(out, l.Platforms...)
	out = append(out, l.Tags...)
	return out
}

// Interpreter parses free text into a validated filter.
type Interpreter struct {
	generator textgen.Generator
	resolver  *resolver.Resolver
	timeout   time.Duration
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithTimeout sets the budget for the extraction generation call.
func WithTimeout(d time.Duration) Option {
	return func(i *Interpreter) { i.timeout = d }
}

// New creates an Interpreter. The generator may be nil; parsing then
// relies on deterministic extraction alone.
func New(generator textgen.Generator, termResolver *resolver.Resolver, opts ...Option) *Interpreter {
	i := &Interpreter{
		generator: generator,
		resolver:  termResolver,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// extraction is the JSON shape the generator is prompted to return.
type extraction struct {
	Query     string   `json:"query"`
	Genres    []string `json:"genres"`
	Platforms []string `json:"platforms"`
	Tags      []string `json:"tags"`
}

// Parse interprets free text into a structured filter plus leftovers.
// Generation failures are non-fatal: the filter falls back to the
// deterministic constraints and the original text. The returned filter is
// normalized and validated; its date range is always populated.
func (i *Interpreter) Parse(ctx context.Context, text string) (games.Filter, Leftovers, error) {
	cons := extractConstraints(text)

	ext := i.extract(ctx, text)

	var leftovers Leftovers
	filter := games.Filter{
		Query:    ext.Query,
		MinPrice: cons.minPrice,
		MaxPrice: cons.maxPrice,
	}
	if cons.from != nil {
		filter.ReleaseFrom = *cons.from
	}
	if cons.to != nil {
		filter.ReleaseTo = *cons.to
	}

	filter.Genres, leftovers.Genres = i.resolver.Resolve(ctx, ext.Genres, games.CategoryGenre)
	filter.Platforms, leftovers.Platforms = i.resolver.Resolve(ctx, ext.Platforms, games.CategoryPlatform)

	// Tags have no fixed vocabulary: scrub anything constraint-like that
	// leaked out of the generation step and pass the rest through.
	filter.Tags = scrubTags(ext.Tags)

	validated, err := games.NewFilter(filter)
	if err != nil {
		return games.Filter{}, Leftovers{}, err
	}
	return validated, leftovers, nil
}

// extract asks the generator for structured terms. Any failure, timeout,
// or unparseable output degrades to the original text with empty term
// lists; no retry is attempted.
func (i *Interpreter) extract(ctx context.Context, text string) extraction {
	fallback := extraction{Query: text}
	if i.generator == nil {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	raw, err := i.generator.Generate(ctx, buildExtractionPrompt(text))
	if err != nil {
		logging.Warn().
			Err(err).
			Str("backend", i.generator.Name()).
			Msg("Term extraction failed, using raw query")
		return fallback
	}

	var ext extraction
	if err := textgen.Decode(textgen.ExtractObject(raw), &ext); err != nil {
		logging.Warn().Err(err).Msg("Term extraction output unparseable, using raw query")
		return fallback
	}

	if ext.Query == "" {
		ext.Query = text
	}
	return ext
}

// constraintWords are keywords whose presence marks a tag as a leaked
// price or date phrase rather than a real feature tag.
var constraintWords = []string{
	"under", "over", "below", "above", "between", "less than", "more than",
	"price", "cost", "free", "cheap",
	"before", "after", "since", "earlier", "year", "release",
}

var hasDigit = regexp.MustCompile(`\d`)

// scrubTags drops generated tags that look like constraint phrases.
func scrubTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" || hasDigit.MatchString(t) || strings.Contains(t, "$") {
			continue
		}
		leaked := false
		for _, w := range constraintWords {
			if strings.Contains(t, w) {
				leaked = true
				break
			}
		}
		if leaked {
			continue
		}
		out = append(out, tag)
	}
	return out
}

// buildExtractionPrompt mirrors the structure the models reliably follow:
// an instruction, the exact output schema, two examples, then the input.
func buildExtractionPrompt(text string) string {
	safe := strings.ReplaceAll(text, `"`, `\"`)
	return fmt.Sprintf(`You are a metadata extractor for a video game search system.
Given a user query about video games, return **only valid JSON** with these keys:
- "query": string, the cleaned query text
- "genres": list of strings, game genres mentioned
- "platforms": list of strings, platforms mentioned
- "tags": list of strings, tags or features mentioned (like multiplayer, co-op, crafting)

If a field is missing in the query, return an empty list or empty string.
Do not include any text outside the JSON.

Examples:
Input: "Looking for a multiplayer RPG on PC with crafting and exploration"
Output:
{
  "query": "multiplayer RPG game with crafting and exploration",
  "genres": ["RPG"],
  "platforms": ["PC"],
  "tags": ["multiplayer", "crafting", "exploration"]
}

Input: "Indie co-op farming game on Xbox, price under $50"
Output:
{
  "query": "Indie co-op farming game",
  "genres": ["Indie"],
  "platforms": ["Xbox"],
  "tags": ["co-op", "farming"]
}

Now extract JSON from this user input:
"%s"`, safe)
}

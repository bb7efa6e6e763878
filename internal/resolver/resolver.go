// Package resolver maps free-form terms (genres, platforms, tags) onto the
// catalog provider's canonical vocabulary. Resolution tries, in order: an
// exact vocabulary hit, the learned synonym cache, fuzzy matching, and
// finally one batched text-generation call whose answers are written back
// into the synonym cache.
package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gamedex/gamedex/internal/fuzzy"
	"github.com/gamedex/gamedex/internal/synonyms"
	"github.com/gamedex/gamedex/internal/textgen"
	"github.com/gamedex/gamedex/internal/vocab"
	"github.com/gamedex/gamedex/pkg/games"
	"github.com/gamedex/gamedex/pkg/logging"
)

// DefaultTermCutoff is the fuzzy-match floor for vocabulary terms. It is
// a tunable; pass WithCutoff to override from configuration.
const DefaultTermCutoff = 0.85

// DefaultTimeout bounds one external canonicalization batch.
const DefaultTimeout = 30 * time.Second

// Resolver resolves free-form terms against one vocabulary.
type Resolver struct {
	vocab     *vocab.Cache
	synonyms  *synonyms.Cache
	generator textgen.Generator
	cutoff    float64
	timeout   time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCutoff sets the fuzzy-match similarity floor.
func WithCutoff(cutoff float64) Option {
	return func(r *Resolver) { r.cutoff = cutoff }
}

// WithTimeout sets the budget for one canonicalization batch.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// New creates a Resolver. The generator may be nil, in which case terms
// that survive the local resolution steps stay unresolved.
func New(vocabCache *vocab.Cache, synonymCache *synonyms.Cache, generator textgen.Generator, opts ...Option) *Resolver {
	r := &Resolver{
		vocab:     vocabCache,
		synonyms:  synonymCache,
		generator: generator,
		cutoff:    DefaultTermCutoff,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps terms to canonical vocabulary names for the category.
// Every input position receives exactly one outcome: its canonical name
// in resolved, or the original term in unresolved. An empty input returns
// immediately with no external calls. A canonicalization failure is
// non-fatal; the affected terms are simply unresolved.
func (r *Resolver) Resolve(ctx context.Context, terms []string, category games.Category) (resolved, unresolved []string) {
	if len(terms) == 0 {
		return []string{}, []string{}
	}

	names := r.vocab.Names(category)
	lowerNames := make([]string, 0, len(names))
	for lower := range names {
		lowerNames = append(lowerNames, lower)
	}
	sort.Strings(lowerNames)

	resolved = make([]string, 0, len(terms))
	unresolved = make([]string, 0)

	// pending holds terms that need the external call, keyed by their
	// lowercase form so duplicates share one answer.
	type pendingTerm struct {
		original string
	}
	var pending []pendingTerm

	for _, term := range terms {
		key := strings.ToLower(strings.TrimSpace(term))
		if key == "" {
			continue
		}

		// 1. Exact vocabulary hit.
		if entry, ok := names[key]; ok {
			resolved = append(resolved, entry.Name)
			continue
		}

		// 2. Learned synonym.
		if canonical, ok := r.synonyms.Resolve(category, key); ok {
			resolved = append(resolved, canonical)
			continue
		}

		// 3. Fuzzy match against vocabulary names.
		if idx, score, ok := fuzzy.BestMatch(key, lowerNames, r.cutoff); ok {
			canonical := names[lowerNames[idx]].Name
			logging.Debug().
				Str("category", category.String()).
				Str("term", term).
				Str("canonical", canonical).
				Float64("score", score).
				Msg("Fuzzy resolved term")
			resolved = append(resolved, canonical)
			continue
		}

		pending = append(pending, pendingTerm{original: term})
	}

	if len(pending) == 0 {
		return resolved, unresolved
	}

	// 4. One batched canonicalization call for everything still open.
	// Without a generator or a vocabulary there is nothing to ask.
	var answers map[string]string
	if r.generator != nil && len(lowerNames) > 0 {
		originals := make([]string, 0, len(pending))
		seen := make(map[string]struct{}, len(pending))
		for _, p := range pending {
			key := strings.ToLower(strings.TrimSpace(p.original))
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			originals = append(originals, p.original)
		}
		answers = r.canonicalize(ctx, originals, category, names)
	}

	for _, p := range pending {
		key := strings.ToLower(strings.TrimSpace(p.original))
		if canonical, ok := answers[key]; ok {
			resolved = append(resolved, canonical)
			continue
		}
		unresolved = append(unresolved, p.original)
	}

	if len(unresolved) > 0 {
		logging.Warn().
			Str("category", category.String()).
			Strs("terms", unresolved).
			Msg("Unresolved terms")
	}

	return resolved, unresolved
}

// canonicalize sends one batch to the generator and returns verified
// answers keyed by the lowercase input term. Newly learned mappings are
// persisted synchronously. Any failure returns an empty map; no mapping
// is persisted from a failed batch.
func (r *Resolver) canonicalize(ctx context.Context, terms []string, category games.Category, names map[string]games.VocabEntry) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	prompt := r.buildPrompt(terms, category, names)

	raw, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		logging.Warn().
			Err(err).
			Str("backend", r.generator.Name()).
			Str("category", category.String()).
			Msg("Canonicalization call failed")
		return nil
	}

	var parsed map[string]*string
	if err := textgen.Decode(textgen.ExtractObject(raw), &parsed); err != nil {
		logging.Warn().
			Err(err).
			Str("category", category.String()).
			Msg("Canonicalization output unparseable")
		return nil
	}

	answers := make(map[string]string, len(parsed))
	for term, canonical := range parsed {
		if canonical == nil || *canonical == "" {
			continue
		}
		// Only accept answers that are really in the vocabulary.
		entry, ok := names[strings.ToLower(*canonical)]
		if !ok {
			logging.Debug().
				Str("term", term).
				Str("answer", *canonical).
				Msg("Discarding canonicalization answer outside vocabulary")
			continue
		}

		key := strings.ToLower(strings.TrimSpace(term))
		answers[key] = entry.Name

		if err := r.synonyms.Add(category, key, entry.Name); err != nil {
			logging.Error().Err(err).Str("term", key).Msg("Failed to persist synonym")
		}
	}
	return answers
}

// buildPrompt asks for a JSON object mapping each input term to a
// vocabulary entry or null.
func (r *Resolver) buildPrompt(terms []string, category games.Category, names map[string]games.VocabEntry) string {
	canonical := make([]string, 0, len(names))
	for _, entry := range names {
		canonical = append(canonical, entry.Name)
	}
	sort.Strings(canonical)

	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = fmt.Sprintf("%q", t)
	}

	return fmt.Sprintf(`You are a vocabulary canonicalizer for a video game search system.
Map each input term to the closest %s from the allowed vocabulary.
Return only valid JSON: an object whose keys are exactly the input terms and whose
values are either a vocabulary entry copied verbatim, or null when there is no
confident match. Do not include any text outside the JSON.

Allowed vocabulary:
%s

Input terms: %s`,
		category.String(),
		strings.Join(canonical, ", "),
		strings.Join(quoted, ", "))
}

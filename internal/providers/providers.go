// Package providers defines the two upstream data sources the aggregator
// consumes. The interfaces expose only the operations the pipeline
// actually uses; provider capabilities beyond search and details are
// deliberately absent.
package providers

import (
	"context"

	"github.com/gamedex/gamedex/pkg/games"
)

// Catalog is the primary source enumerating games by filterable
// attributes. A catalog failure is fatal to the aggregate call.
type Catalog interface {
	// Search returns up to limit records starting at offset, plus the
	// total match count reported by the provider.
	Search(ctx context.Context, filter games.Filter, limit, offset int) ([]games.Game, int, error)

	// Details returns the full record for one catalog ID.
	Details(ctx context.Context, id string) (*games.Game, error)

	// Vocabulary lists one page of a controlled vocabulary. The boolean
	// reports whether more pages follow.
	Vocabulary(ctx context.Context, category games.Category, page int) ([]games.VocabEntry, bool, error)
}

// Storefront is the secondary source used to enrich records with
// commercial metadata via name search. Storefront failures degrade to
// un-enriched records.
type Storefront interface {
	// Search returns game-typed records matching the free-text term.
	Search(ctx context.Context, term string) ([]games.Game, error)

	// Details returns the record for one storefront ID, or
	// errors.ErrNotFound when the storefront has nothing for it.
	Details(ctx context.Context, id string) (*games.Game, error)
}

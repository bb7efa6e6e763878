package games

// VocabEntry is one entry of a provider's controlled vocabulary.
// Identity is ID; Name uniqueness within a category is assumed but not
// enforced by the source provider. Entries are immutable once fetched.
type VocabEntry struct {
	ID   int    `yaml:"id" json:"id"`
	Slug string `yaml:"slug,omitempty" json:"slug,omitempty"`
	Name string `yaml:"name" json:"name"`
}

package games

import (
	"fmt"
	"strings"
)

// Category identifies one of the catalog provider's controlled vocabularies.
type Category string

const (
	// CategoryGenre is the genre vocabulary (e.g. "Action", "RPG").
	CategoryGenre Category = "genre"
	// CategoryPlatform is the platform vocabulary (e.g. "PC", "PlayStation 5").
	CategoryPlatform Category = "platform"
	// CategoryTag is the free-form tag vocabulary (e.g. "multiplayer").
	CategoryTag Category = "tag"
)

// String returns the string representation of a category.
func (c Category) String() string {
	return string(c)
}

// Categories returns all vocabulary categories in a stable order.
func Categories() []Category {
	return []Category{CategoryGenre, CategoryPlatform, CategoryTag}
}

// ParseCategory converts a string into a Category.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "genre", "genres":
		return CategoryGenre, nil
	case "platform", "platforms":
		return CategoryPlatform, nil
	case "tag", "tags":
		return CategoryTag, nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

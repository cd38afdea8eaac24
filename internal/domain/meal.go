package domain

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CategoryAll is the selector value meaning "no category filter"
const CategoryAll = "All"

// Meal represents one catalog item, normalized from any upstream shape
type Meal struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Thumbnail string   `json:"thumbnail"`
	Category  []string `json:"category,omitempty"`
	Price     float64  `json:"price"`
}

// CatalogPage is a normalized page of upstream listing results
type CatalogPage struct {
	Meals []Meal
	Total int
}

// PriceForID derives the placeholder price of a meal from its identifier.
// Upstream has no pricing data, so numeric ids are scaled by 1/100.
// Non-numeric ids are priced at zero.
func PriceForID(id string) float64 {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return 0
	}
	return decimal.NewFromInt(n).Shift(-2).InexactFloat64()
}

// NewMeal builds a Meal and fills in the derived price
func NewMeal(id, name, thumbnail string, category []string) Meal {
	return Meal{
		ID:        id,
		Name:      name,
		Thumbnail: thumbnail,
		Category:  category,
		Price:     PriceForID(id),
	}
}

// MealCacheKey returns the single-item cache key for a meal id
func MealCacheKey(id string) string {
	return "meal_" + id
}

// Selector is the category filter of a listing: either All or a set of tags
type Selector struct {
	Categories []string
}

// NewSelector normalizes the given categories. An empty list, or one that
// contains All, selects the unfiltered listing.
func NewSelector(categories ...string) Selector {
	var tags []string
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if strings.EqualFold(c, CategoryAll) {
			return Selector{}
		}
		tags = append(tags, c)
	}
	return Selector{Categories: tags}
}

// IsAll reports whether the selector applies no filter
func (s Selector) IsAll() bool {
	return len(s.Categories) == 0
}

// FilterTerm is the comma-joined tag list sent upstream
func (s Selector) FilterTerm() string {
	return strings.Join(s.Categories, ",")
}

// CacheKey is the listing key of the accumulated cached page
func (s Selector) CacheKey() string {
	if s.IsAll() {
		return "meals_" + CategoryAll
	}
	return "meals_" + s.FilterTerm()
}

// TotalKey returns the key holding the total-count marker for a listing key
func TotalKey(listingKey string) string {
	return listingKey + "_total"
}

// ToggleCategory computes the next selection when a category chip is tapped.
// All is exclusive, and deselecting the last tag falls back to All.
func ToggleCategory(selected []string, category string) []string {
	category = strings.TrimSpace(category)
	if category == "" {
		return append([]string(nil), selected...)
	}
	if category == CategoryAll {
		return []string{CategoryAll}
	}

	hasAll := false
	found := false
	for _, s := range selected {
		if s == CategoryAll {
			hasAll = true
		}
		if s == category {
			found = true
		}
	}

	switch {
	case hasAll || len(selected) == 0:
		return []string{category}
	case found:
		next := make([]string, 0, len(selected))
		for _, s := range selected {
			if s != category {
				next = append(next, s)
			}
		}
		if len(next) == 0 {
			return []string{CategoryAll}
		}
		return next
	default:
		return append(append([]string(nil), selected...), category)
	}
}

package domain

// Source tells the caller where a result came from
type Source string

const (
	SourceNetwork  Source = "network"
	SourceFallback Source = "fallback"
)

// MealResult is a single meal together with its origin
type MealResult struct {
	Meal   Meal   `json:"meal"`
	Source Source `json:"source"`
}

// SearchResult holds search matches. Degraded is set when the upstream failed
// and the empty result does not mean "no matches".
type SearchResult struct {
	Meals    []Meal `json:"meals"`
	Source   Source `json:"source"`
	Degraded bool   `json:"degraded"`
}

// PageResult is one page of a listing plus the upstream-reported item total
type PageResult struct {
	Meals  []Meal `json:"meals"`
	Total  int    `json:"total"`
	Source Source `json:"source"`
}

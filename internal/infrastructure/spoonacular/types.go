package spoonacular

// Recipe is the subset of a Spoonacular recipe the catalog uses.
// ID is a pointer so a missing id can be told apart from zero.
type Recipe struct {
	ID    *int64 `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`
}

// ComplexSearchResponse is the body of GET /complexSearch
type ComplexSearchResponse struct {
	Results      []Recipe `json:"results"`
	Offset       int      `json:"offset"`
	Number       int      `json:"number"`
	TotalResults int      `json:"totalResults"`
}

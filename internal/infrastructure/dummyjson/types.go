package dummyjson

// Recipe is the subset of a DummyJSON recipe the catalog uses
type Recipe struct {
	ID       *int64   `json:"id"`
	Name     string   `json:"name"`
	Image    string   `json:"image"`
	Tags     []string `json:"tags"`
	MealType []string `json:"mealType"`
}

// RecipeList is the paged envelope returned by list, tag and search endpoints
type RecipeList struct {
	Recipes []Recipe `json:"recipes"`
	Total   int      `json:"total"`
	Skip    int      `json:"skip"`
	Limit   int      `json:"limit"`
}

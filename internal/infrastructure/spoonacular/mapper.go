package spoonacular

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/pantry/backend/internal/domain"
)

// MapRecipe converts a recipe detail into a Meal. A recipe without an id
// cannot be cached or priced and is rejected.
func MapRecipe(r *Recipe) (*domain.Meal, error) {
	if r == nil || r.ID == nil {
		return nil, fmt.Errorf("%w: recipe without id", domain.ErrMalformedUpstream)
	}
	meal := domain.NewMeal(strconv.FormatInt(*r.ID, 10), r.Title, r.Image, nil)
	return &meal, nil
}

// MapResults converts search results, skipping entries without an id
func MapResults(results []Recipe, log *zap.Logger) []domain.Meal {
	meals := make([]domain.Meal, 0, len(results))
	for i := range results {
		meal, err := MapRecipe(&results[i])
		if err != nil {
			log.Warn("skipping recipe without id", zap.Int("index", i), zap.String("title", results[i].Title))
			continue
		}
		meals = append(meals, *meal)
	}
	return meals
}

package dummyjson

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/pantry/backend/internal/domain"
)

// MapRecipe converts a recipe into a Meal. Tags and meal types are merged
// into the category list, first occurrence wins.
func MapRecipe(r *Recipe) (*domain.Meal, error) {
	if r == nil || r.ID == nil {
		return nil, fmt.Errorf("%w: recipe without id", domain.ErrMalformedUpstream)
	}

	var categories []string
	seen := make(map[string]bool, len(r.Tags)+len(r.MealType))
	for _, group := range [][]string{r.Tags, r.MealType} {
		for _, c := range group {
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			categories = append(categories, c)
		}
	}

	meal := domain.NewMeal(strconv.FormatInt(*r.ID, 10), r.Name, r.Image, categories)
	return &meal, nil
}

// MapRecipes converts a list, skipping entries without an id
func MapRecipes(recipes []Recipe, log *zap.Logger) []domain.Meal {
	meals := make([]domain.Meal, 0, len(recipes))
	for i := range recipes {
		meal, err := MapRecipe(&recipes[i])
		if err != nil {
			log.Warn("skipping recipe without id", zap.Int("index", i), zap.String("name", recipes[i].Name))
			continue
		}
		meals = append(meals, *meal)
	}
	return meals
}

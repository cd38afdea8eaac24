package usecase

import (
	"context"
	"fmt"

	"github.com/pantry/backend/internal/domain"
)

// ListingPage is one page of the category listing as served to clients
type ListingPage struct {
	Meals      []domain.Meal `json:"meals"`
	Page       int           `json:"page"`
	Total      int           `json:"total"`
	TotalPages int           `json:"totalPages"`
	NextPage   *int          `json:"nextPage"`
	Source     domain.Source `json:"source"`
}

// ListingService pages through the category listing
type ListingService struct {
	meals     *MealService
	paginator Paginator
}

// NewListingService creates a listing service
func NewListingService(meals *MealService, paginator Paginator) *ListingService {
	return &ListingService{meals: meals, paginator: paginator}
}

// Page loads page number page (zero based) for selector
func (s *ListingService) Page(ctx context.Context, selector domain.Selector, page int) (*ListingPage, error) {
	if page < 0 {
		return nil, fmt.Errorf("%w: page must not be negative, got %d", domain.ErrInvalidRequest, page)
	}

	res := s.meals.FetchPage(ctx, selector, s.paginator.Offset(page), s.paginator.Limit(page))

	totalPages := s.paginator.TotalPages(res.Total)
	out := &ListingPage{
		Meals:      res.Meals,
		Page:       page,
		Total:      res.Total,
		TotalPages: totalPages,
		Source:     res.Source,
	}
	if next, ok := s.paginator.NextPage(page, totalPages); ok {
		out.NextPage = &next
	}
	return out, nil
}

// Package dummyjson is a client for the keyless DummyJSON recipes API,
// used as a development stand-in for the production catalog.
package dummyjson

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pantry/backend/internal/domain"
	"github.com/pantry/backend/internal/infrastructure/upstream"
)

// Client handles communication with the DummyJSON API
type Client struct {
	requester *upstream.Requester
	baseURL   string
	logger    *zap.Logger
}

var _ domain.MealCatalog = (*Client)(nil)

// NewClient creates a new DummyJSON API client
func NewClient(baseURL string, opts upstream.Options, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("dummyjson")

	return &Client{
		requester: upstream.NewRequester(opts, log),
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    log,
	}
}

func (c *Client) endpoint(path string, params url.Values) string {
	if len(params) == 0 {
		return c.baseURL + path
	}
	return fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
}

// GetMeal retrieves a single recipe by id
func (c *Client) GetMeal(ctx context.Context, id string) (*domain.Meal, error) {
	var recipe Recipe
	if err := c.requester.GetJSON(ctx, c.endpoint("/"+url.PathEscape(id), nil), &recipe); err != nil {
		return nil, err
	}
	return MapRecipe(&recipe)
}

// SearchMeals runs a free-text recipe search
func (c *Client) SearchMeals(ctx context.Context, query string) ([]domain.Meal, error) {
	var list RecipeList
	if err := c.requester.GetJSON(ctx, c.endpoint("/search", url.Values{"q": {query}}), &list); err != nil {
		return nil, err
	}
	return MapRecipes(list.Recipes, c.logger), nil
}

// ListMeals fetches one listing page. The API filters by a single tag only,
// so multi-tag selectors fall back to the unfiltered listing.
func (c *Client) ListMeals(ctx context.Context, selector domain.Selector, offset, limit int) (*domain.CatalogPage, error) {
	params := url.Values{
		"skip":  {strconv.Itoa(offset)},
		"limit": {strconv.Itoa(limit)},
	}

	path := ""
	switch len(selector.Categories) {
	case 0:
	case 1:
		path = "/tag/" + url.PathEscape(selector.Categories[0])
	default:
		c.logger.Debug("multi-tag filter unsupported, listing all", zap.Strings("tags", selector.Categories))
	}

	var list RecipeList
	if err := c.requester.GetJSON(ctx, c.endpoint(path, params), &list); err != nil {
		return nil, err
	}

	return &domain.CatalogPage{
		Meals: MapRecipes(list.Recipes, c.logger),
		Total: list.Total,
	}, nil
}

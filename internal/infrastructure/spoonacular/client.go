// Package spoonacular is a client for the Spoonacular recipes API.
package spoonacular

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

// Client handles communication with the Spoonacular API
type Client struct {
	requester *upstream.Requester
	apiKey    string
	baseURL   string
	logger    *zap.Logger
}

var _ domain.MealCatalog = (*Client)(nil)

// NewClient creates a new Spoonacular API client
func NewClient(apiKey, baseURL string, opts upstream.Options, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("spoonacular")

	return &Client{
		requester: upstream.NewRequester(opts, log),
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    log,
	}
}

func (c *Client) endpoint(path string, params url.Values) string {
	params.Set("apiKey", c.apiKey)
	return fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
}

// GetMeal retrieves a single recipe by id
func (c *Client) GetMeal(ctx context.Context, id string) (*domain.Meal, error) {
	reqURL := c.endpoint("/"+url.PathEscape(id)+"/information", url.Values{})

	var recipe Recipe
	if err := c.requester.GetJSON(ctx, reqURL, &recipe); err != nil {
		return nil, err
	}
	return MapRecipe(&recipe)
}

// SearchMeals runs a free-text recipe search
func (c *Client) SearchMeals(ctx context.Context, query string) ([]domain.Meal, error) {
	reqURL := c.endpoint("/complexSearch", url.Values{"query": {query}})

	var resp ComplexSearchResponse
	if err := c.requester.GetJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug("search completed", zap.String("query", query), zap.Int("results", len(resp.Results)))
	return MapResults(resp.Results, c.logger), nil
}

// ListMeals fetches one listing page. Category tags become an
// includeIngredients filter.
func (c *Client) ListMeals(ctx context.Context, selector domain.Selector, offset, limit int) (*domain.CatalogPage, error) {
	params := url.Values{
		"offset": {strconv.Itoa(offset)},
		"number": {strconv.Itoa(limit)},
	}
	if !selector.IsAll() {
		params.Set("includeIngredients", selector.FilterTerm())
	}

	var resp ComplexSearchResponse
	if err := c.requester.GetJSON(ctx, c.endpoint("/complexSearch", params), &resp); err != nil {
		return nil, err
	}

	return &domain.CatalogPage{
		Meals: MapResults(resp.Results, c.logger),
		Total: resp.TotalResults,
	}, nil
}

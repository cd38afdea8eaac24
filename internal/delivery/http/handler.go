package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pantry/backend/internal/domain"
	"github.com/pantry/backend/internal/usecase"
)

const (
	userHeader  = "X-User-ID"
	defaultUser = "guest"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	meals     *usecase.MealService
	listing   *usecase.ListingService
	cart      *usecase.CartService
	favorites *usecase.FavoritesService
	checkout  *usecase.CheckoutService
	metrics   *Metrics
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler. metrics may be nil.
func NewHandler(
	meals *usecase.MealService,
	listing *usecase.ListingService,
	cart *usecase.CartService,
	favorites *usecase.FavoritesService,
	checkout *usecase.CheckoutService,
	metrics *Metrics,
	log *zap.Logger,
) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		meals:     meals,
		listing:   listing,
		cart:      cart,
		favorites: favorites,
		checkout:  checkout,
		metrics:   metrics,
		logger:    log,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pantry-backend",
		"version": "1.0.0",
	})
}

// ListMeals serves one page of the category listing.
// Query: categories=Beef,Fish (empty or All means unfiltered), page=N (zero based)
func (h *Handler) ListMeals(c *gin.Context) {
	page := 0
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(c, errors.Join(domain.ErrInvalidRequest, err))
			return
		}
		page = n
	}

	selector := domain.NewSelector(splitList(c.Query("categories"))...)
	res, err := h.listing.Page(c.Request.Context(), selector, page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.metrics.observeSource("listing", res.Source)
	c.JSON(http.StatusOK, res)
}

// SearchMeals runs a free-text search
func (h *Handler) SearchMeals(c *gin.Context) {
	res := h.meals.Search(c.Request.Context(), c.Query("q"))
	source := res.Source
	if res.Degraded {
		source = "degraded"
	}
	h.metrics.observeSource("search", source)
	c.JSON(http.StatusOK, res)
}

// GetMeal returns one meal with the source it was served from
func (h *Handler) GetMeal(c *gin.Context) {
	res, err := h.meals.FetchByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.metrics.observeSource("meal", res.Source)
	c.JSON(http.StatusOK, res)
}

// ToggleCategory computes the next chip selection
func (h *Handler) ToggleCategory(c *gin.Context) {
	next := domain.ToggleCategory(splitList(c.Query("selected")), c.Query("category"))
	c.JSON(http.StatusOK, gin.H{"selected": next})
}

// GetCart returns the caller's cart lines
func (h *Handler) GetCart(c *gin.Context) {
	items, err := h.cart.Items(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// AddCartItem adds one unit of a meal to the cart
func (h *Handler) AddCartItem(c *gin.Context) {
	items, err := h.cart.Add(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

// UpdateCartItem sets the quantity of a cart line; zero or less removes it
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.Join(domain.ErrInvalidRequest, err))
		return
	}
	if req.Quantity == nil {
		h.respondError(c, errors.Join(domain.ErrInvalidRequest, errors.New("quantity is required")))
		return
	}

	items, err := h.cart.UpdateQuantity(c.Request.Context(), userID(c), c.Param("id"), *req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// RemoveCartItem drops a line from the cart
func (h *Handler) RemoveCartItem(c *gin.Context) {
	items, err := h.cart.Remove(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ClearCart empties the cart
func (h *Handler) ClearCart(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context(), userID(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type summaryRequest struct {
	PromoCode *string `json:"promoCode"`
}

// CartSummary prices the cart. The body is optional.
func (h *Handler) CartSummary(c *gin.Context) {
	var req summaryRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondError(c, errors.Join(domain.ErrInvalidRequest, err))
			return
		}
	}

	summary, err := h.checkout.SummarizeCart(c.Request.Context(), userID(c), req.PromoCode)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetFavorites returns favorite ids and the resolved meals
func (h *Handler) GetFavorites(c *gin.Context) {
	ctx := c.Request.Context()
	ids, err := h.favorites.IDs(ctx, userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	results, err := h.meals.FetchMany(ctx, ids)
	if err != nil {
		h.respondError(c, err)
		return
	}
	meals := make([]domain.Meal, len(results))
	for i, r := range results {
		meals[i] = r.Meal
	}
	c.JSON(http.StatusOK, gin.H{"ids": ids, "meals": meals})
}

// ToggleFavorite flips the favorite flag of a meal
func (h *Handler) ToggleFavorite(c *gin.Context) {
	id := c.Param("id")
	favorite, err := h.favorites.Toggle(c.Request.Context(), userID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "favorite": favorite})
}

// respondError maps domain errors onto HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotAvailable), errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCacheUnavailable):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func userID(c *gin.Context) string {
	if u := strings.TrimSpace(c.GetHeader(userHeader)); u != "" {
		return u
	}
	return defaultUser
}

// splitList splits a comma separated query value, dropping blanks
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

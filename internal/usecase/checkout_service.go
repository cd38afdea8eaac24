package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pantry/backend/internal/domain"
)

// CheckoutConfig holds order summary settings
type CheckoutConfig struct {
	DeliveryFee float64
	Currency    string
}

// CheckoutService prices a user's cart
type CheckoutService struct {
	cart        *CartService
	meals       *MealService
	deliveryFee decimal.Decimal
	currency    string
}

// NewCheckoutService creates a checkout service
func NewCheckoutService(cart *CartService, meals *MealService, config CheckoutConfig) *CheckoutService {
	currency := config.Currency
	if currency == "" {
		currency = "R"
	}
	return &CheckoutService{
		cart:        cart,
		meals:       meals,
		deliveryFee: decimal.NewFromFloat(config.DeliveryFee),
		currency:    currency,
	}
}

// NormalizePromoCode trims code and rejects blank input
func NormalizePromoCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("%w: promo code must not be blank", domain.ErrInvalidRequest)
	}
	return code, nil
}

// SummarizeCart loads the user's cart, resolves every meal and prices it.
// A nil promoCode means none was entered.
func (s *CheckoutService) SummarizeCart(ctx context.Context, user string, promoCode *string) (*domain.OrderSummary, error) {
	var promo string
	if promoCode != nil {
		code, err := NormalizePromoCode(*promoCode)
		if err != nil {
			return nil, err
		}
		promo = code
	}

	items, err := s.cart.Items(ctx, user)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	results, err := s.meals.FetchMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	meals := make(map[string]domain.Meal, len(results))
	for _, r := range results {
		meals[r.Meal.ID] = r.Meal
	}

	summary := Summarize(meals, items, s.deliveryFee, s.currency)
	summary.PromoCode = promo
	return summary, nil
}

// Summarize prices items against meals. Items whose meal is unknown are
// left out. Delivery is charged on every order.
func Summarize(
	meals map[string]domain.Meal,
	items []domain.CartItem,
	deliveryFee decimal.Decimal,
	currency string,
) *domain.OrderSummary {
	lines := make([]domain.OrderLine, 0, len(items))
	subtotal := decimal.Zero

	for _, it := range items {
		meal, ok := meals[it.ID]
		if !ok || it.Quantity <= 0 {
			continue
		}
		unit := decimal.NewFromFloat(meal.Price)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		lines = append(lines, domain.OrderLine{
			MealID:    meal.ID,
			Name:      meal.Name,
			Quantity:  it.Quantity,
			UnitPrice: unit,
			LineTotal: lineTotal,
		})
	}

	total := subtotal.Add(deliveryFee)
	return &domain.OrderSummary{
		Lines:    lines,
		Subtotal: subtotal,
		Delivery: deliveryFee,
		Total:    total,
		Display: domain.SummaryDisplay{
			Subtotal: domain.FormatAmount(currency, subtotal),
			Delivery: domain.FormatAmount(currency, deliveryFee),
			Total:    domain.FormatAmount(currency, total),
		},
	}
}

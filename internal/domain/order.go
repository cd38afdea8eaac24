package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CartItem is one line of the cart, keyed by meal id
type CartItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// OrderLine is a priced cart line
type OrderLine struct {
	MealID    string          `json:"mealId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// OrderSummary is the checkout breakdown shown under the cart
type OrderSummary struct {
	Lines     []OrderLine     `json:"lines"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Delivery  decimal.Decimal `json:"delivery"`
	Total     decimal.Decimal `json:"total"`
	PromoCode string          `json:"promoCode,omitempty"`
	Display   SummaryDisplay  `json:"display"`
}

// SummaryDisplay holds the formatted amounts
type SummaryDisplay struct {
	Subtotal string `json:"subtotal"`
	Delivery string `json:"delivery"`
	Total    string `json:"total"`
}

// FormatAmount renders an amount as "<currency> 12.34"
func FormatAmount(currency string, amount decimal.Decimal) string {
	return fmt.Sprintf("%s %s", currency, amount.StringFixed(2))
}

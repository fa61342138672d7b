package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Payment kinds accepted at checkout. No real payment is processed.
const (
	PaymentCard   = "card"
	PaymentPayPal = "paypal"
	PaymentCOD    = "cod"
)

// PaymentMethod is a descriptor of the chosen payment, never a card number.
type PaymentMethod struct {
	Kind   string `json:"kind"`
	Brand  string `json:"brand,omitempty"`
	Last4  string `json:"last4,omitempty"`
	Holder string `json:"holder,omitempty"`
	Email  string `json:"email,omitempty"`
}

type OrderItem struct {
	Key       string          `json:"key"`
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Brand     string          `json:"brand,omitempty"`
	Image     string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

const OrderPlaced = "PLACED"

// Order is the immutable snapshot written when checkout completes.
type Order struct {
	ID              string        `json:"id"`
	CreatedAt       time.Time     `json:"createdAt"`
	SessionID       string        `json:"sessionId"`
	UserEmail       string        `json:"userEmail,omitempty"`
	Items           []OrderItem   `json:"items"`
	Totals          Totals        `json:"totals"`
	ShippingAddress Address       `json:"shippingAddress"`
	BillingAddress  Address       `json:"billingAddress"`
	Payment         PaymentMethod `json:"payment"`
	Status          string        `json:"status"`
}

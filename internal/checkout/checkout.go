package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/store"
	"storefront/internal/validate"
)

type Step string

const (
	StepAddress Step = "address"
	StepPayment Step = "payment"
	StepReview  Step = "review"
	StepPlaced  Step = "placed"
)

var (
	ErrWrongStep       = errors.New("checkout step not available")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidAddress  = errors.New("address is incomplete")
	ErrInvalidPayment  = errors.New("payment method is incomplete")
	ErrPlacementFailed = errors.New("order could not be saved")
)

// Session is the per-visitor checkout progress. It moves forward only;
// Reset starts over.
type Session struct {
	Step                  Step                  `json:"step"`
	Shipping              *domain.Address       `json:"shipping,omitempty"`
	Billing               *domain.Address       `json:"billing,omitempty"`
	BillingSameAsShipping bool                  `json:"billingSameAsShipping"`
	Payment               *domain.PaymentMethod `json:"payment,omitempty"`
	OrderID               string                `json:"orderId,omitempty"`
}

func NewSession() *Session { return &Session{Step: StepAddress} }

// Normalize repairs a decoded session whose step and data disagree.
func (s *Session) Normalize() {
	switch s.Step {
	case StepAddress:
	case StepPayment:
		if s.Shipping == nil || s.Billing == nil {
			*s = *NewSession()
		}
	case StepReview:
		if s.Shipping == nil || s.Billing == nil || s.Payment == nil {
			*s = *NewSession()
		}
	case StepPlaced:
		if s.OrderID == "" {
			*s = *NewSession()
		}
	default:
		*s = *NewSession()
	}
}

func (s *Session) Reset() { *s = *NewSession() }

// SetAddress records the shipping address (and billing unless it is the
// same) and moves on to payment.
func (s *Session) SetAddress(shipping domain.Address, sameAsShipping bool, billing *domain.Address) error {
	if s.Step != StepAddress {
		return fmt.Errorf("%w: at %s", ErrWrongStep, s.Step)
	}
	if err := ValidateAddress(shipping); err != nil {
		return err
	}
	b := shipping
	if !sameAsShipping {
		if billing == nil {
			return fmt.Errorf("%w: billing address required", ErrInvalidAddress)
		}
		if err := ValidateAddress(*billing); err != nil {
			return err
		}
		b = *billing
	}
	s.Shipping, s.Billing, s.BillingSameAsShipping = &shipping, &b, sameAsShipping
	s.Step = StepPayment
	return nil
}

func (s *Session) SetPayment(m domain.PaymentMethod) error {
	if s.Step != StepPayment {
		return fmt.Errorf("%w: at %s", ErrWrongStep, s.Step)
	}
	if err := ValidatePayment(m); err != nil {
		return err
	}
	m.Holder, m.Last4 = strings.TrimSpace(m.Holder), strings.TrimSpace(m.Last4)
	s.Payment = &m
	s.Step = StepReview
	return nil
}

// ValidateAddress reports the first missing field in form order.
func ValidateAddress(a domain.Address) error {
	if _, ok := validate.Name(a.Name); !ok {
		return fmt.Errorf("%w: name missing or too long", ErrInvalidAddress)
	}
	for _, f := range []struct{ name, value string }{
		{"line1", a.Line1},
		{"city", a.City},
		{"postalCode", a.PostalCode},
		{"country", a.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s missing", ErrInvalidAddress, f.name)
		}
	}
	return nil
}

func ValidatePayment(m domain.PaymentMethod) error {
	switch m.Kind {
	case domain.PaymentCard:
		if _, ok := validate.Name(m.Holder); !ok || !validate.Last4(m.Last4) {
			return fmt.Errorf("%w: card needs holder and last 4 digits", ErrInvalidPayment)
		}
	case domain.PaymentPayPal:
		if !strings.Contains(m.Email, "@") {
			return fmt.Errorf("%w: paypal needs an email", ErrInvalidPayment)
		}
	case domain.PaymentCOD:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPayment, m.Kind)
	}
	return nil
}

// Pricing turns a cart subtotal into order totals.
type Pricing struct {
	TaxRate          decimal.Decimal
	FlatShipping     decimal.Decimal
	FreeShippingOver decimal.Decimal
}

var DefaultPricing = Pricing{
	TaxRate:          decimal.RequireFromString("0.08"),
	FlatShipping:     decimal.RequireFromString("5.99"),
	FreeShippingOver: decimal.RequireFromString("50"),
}

func (p Pricing) Totals(subtotal decimal.Decimal) domain.Totals {
	t := domain.Totals{Subtotal: subtotal, Shipping: decimal.Zero}
	t.Tax = subtotal.Mul(p.TaxRate).Round(2)
	if subtotal.IsPositive() && subtotal.LessThan(p.FreeShippingOver) {
		t.Shipping = p.FlatShipping
	}
	t.Total = t.Subtotal.Add(t.Tax).Add(t.Shipping)
	return t
}

// CommitFunc must persist the order and clear the persisted cart as one
// atomic unit: either both happen or neither does.
type CommitFunc func(ctx context.Context, o domain.Order) error

type Machine struct {
	Pricing Pricing
	Now     func() time.Time
	NewID   func() string
}

func NewMachine(p Pricing) *Machine {
	return &Machine{Pricing: p, Now: time.Now, NewID: uuid.NewString}
}

// Place builds the order snapshot from the current cart and hands it to
// commit. Session and cart only change once commit succeeds.
func (m *Machine) Place(ctx context.Context, s *Session, cart *store.Cart, sessionID, userEmail string, commit CommitFunc) (domain.Order, error) {
	if s.Step != StepReview {
		return domain.Order{}, fmt.Errorf("%w: at %s", ErrWrongStep, s.Step)
	}
	if cart.Empty() {
		return domain.Order{}, ErrEmptyCart
	}

	lines := cart.Lines()
	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, domain.OrderItem{
			Key: l.Key, ProductID: l.ProductID, Title: l.Title, Brand: l.Brand, Image: l.Image,
			Size: l.Size, Color: l.Color, Price: l.Price, Quantity: l.Quantity, Subtotal: l.Subtotal(),
		})
	}
	o := domain.Order{
		ID:              m.NewID(),
		CreatedAt:       m.Now().UTC(),
		SessionID:       sessionID,
		UserEmail:       userEmail,
		Items:           items,
		Totals:          m.Pricing.Totals(cart.Total()),
		ShippingAddress: *s.Shipping,
		BillingAddress:  *s.Billing,
		Payment:         *s.Payment,
		Status:          domain.OrderPlaced,
	}

	if err := commit(ctx, o); err != nil {
		return domain.Order{}, fmt.Errorf("%w: %w", ErrPlacementFailed, err)
	}
	cart.Clear()
	s.Step = StepPlaced
	s.OrderID = o.ID
	return o, nil
}

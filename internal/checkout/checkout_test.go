package checkout_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/store"
)

var home = domain.Address{Name: "Ada", Line1: "1 Main St", City: "Springfield", PostalCode: "20742", Country: "US"}

var card = domain.PaymentMethod{Kind: domain.PaymentCard, Brand: "visa", Last4: "4242", Holder: "Ada"}

func machine() *checkout.Machine {
	m := checkout.NewMachine(checkout.DefaultPricing)
	m.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	m.NewID = func() string { return "ord-1" }
	return m
}

func reviewSession(t *testing.T) *checkout.Session {
	t.Helper()
	s := checkout.NewSession()
	require.NoError(t, s.SetAddress(home, true, nil))
	require.NoError(t, s.SetPayment(card))
	require.Equal(t, checkout.StepReview, s.Step)
	return s
}

func filledCart(t *testing.T) *store.Cart {
	t.Helper()
	c := store.NewCart(nil)
	_, err := c.Add(domain.Product{ID: "mug", Title: "Mug", Price: decimal.RequireFromString("12.50")}, 2, "", "")
	require.NoError(t, err)
	_, err = c.Add(domain.Product{ID: "cap", Title: "Cap", Price: decimal.RequireFromString("20")}, 1, "", "")
	require.NoError(t, err)
	return c
}

func TestSession_ForwardOnly(t *testing.T) {
	s := checkout.NewSession()
	assert.ErrorIs(t, s.SetPayment(card), checkout.ErrWrongStep)

	require.NoError(t, s.SetAddress(home, true, nil))
	assert.Equal(t, checkout.StepPayment, s.Step)
	assert.Equal(t, home, *s.Billing)
	assert.ErrorIs(t, s.SetAddress(home, true, nil), checkout.ErrWrongStep)

	s.Reset()
	assert.Equal(t, checkout.StepAddress, s.Step)
	assert.Nil(t, s.Shipping)
}

func TestSession_SeparateBilling(t *testing.T) {
	s := checkout.NewSession()
	assert.ErrorIs(t, s.SetAddress(home, false, nil), checkout.ErrInvalidAddress)

	office := domain.Address{Name: "Ada", Line1: "9 Work Rd", City: "Shelbyville", PostalCode: "10001", Country: "US"}
	require.NoError(t, s.SetAddress(home, false, &office))
	assert.Equal(t, office, *s.Billing)
	assert.Equal(t, home, *s.Shipping)
	assert.False(t, s.BillingSameAsShipping)
}

func TestValidation(t *testing.T) {
	bad := home
	bad.City = " "
	assert.ErrorIs(t, checkout.ValidateAddress(bad), checkout.ErrInvalidAddress)

	assert.ErrorIs(t, checkout.ValidatePayment(domain.PaymentMethod{Kind: "card", Last4: "42", Holder: "A"}), checkout.ErrInvalidPayment)
	assert.ErrorIs(t, checkout.ValidatePayment(domain.PaymentMethod{Kind: "paypal"}), checkout.ErrInvalidPayment)
	assert.ErrorIs(t, checkout.ValidatePayment(domain.PaymentMethod{Kind: "bitcoin"}), checkout.ErrInvalidPayment)
	assert.NoError(t, checkout.ValidatePayment(domain.PaymentMethod{Kind: "cod"}))
	assert.NoError(t, checkout.ValidatePayment(domain.PaymentMethod{Kind: "paypal", Email: "a@b.co"}))
}

func TestValidation_FirstMissingFieldInFormOrder(t *testing.T) {
	for i := 0; i < 20; i++ {
		err := checkout.ValidateAddress(domain.Address{Country: "US"})
		require.ErrorIs(t, err, checkout.ErrInvalidAddress)
		assert.Contains(t, err.Error(), "name missing")
	}
	err := checkout.ValidateAddress(domain.Address{Name: "Ada", City: "Springfield"})
	assert.Contains(t, err.Error(), "line1 missing")

	long := home
	long.Name = strings.Repeat("n", 61)
	assert.ErrorIs(t, checkout.ValidateAddress(long), checkout.ErrInvalidAddress)
}

func TestValidation_CardHolderAndDigits(t *testing.T) {
	ok := card
	ok.Last4, ok.Holder = " 4242 ", "  Ada "
	assert.NoError(t, checkout.ValidatePayment(ok))

	for name, m := range map[string]domain.PaymentMethod{
		"blank holder":    {Kind: domain.PaymentCard, Last4: "4242", Holder: "   "},
		"long holder":     {Kind: domain.PaymentCard, Last4: "4242", Holder: strings.Repeat("h", 61)},
		"letters in last": {Kind: domain.PaymentCard, Last4: "42a2", Holder: "Ada"},
		"five digits":     {Kind: domain.PaymentCard, Last4: "42424", Holder: "Ada"},
	} {
		assert.ErrorIs(t, checkout.ValidatePayment(m), checkout.ErrInvalidPayment, name)
	}

	s := checkout.NewSession()
	require.NoError(t, s.SetAddress(home, true, nil))
	require.NoError(t, s.SetPayment(ok))
	assert.Equal(t, "4242", s.Payment.Last4)
	assert.Equal(t, "Ada", s.Payment.Holder)
}

func TestPricing_Totals(t *testing.T) {
	p := checkout.DefaultPricing

	small := p.Totals(decimal.RequireFromString("45"))
	assert.Equal(t, "3.6", small.Tax.String())
	assert.Equal(t, "5.99", small.Shipping.String())
	assert.Equal(t, "54.59", small.Total.String())

	big := p.Totals(decimal.RequireFromString("50"))
	assert.True(t, big.Shipping.IsZero())
	assert.Equal(t, "54", big.Total.String())

	zero := p.Totals(decimal.Zero)
	assert.True(t, zero.Total.IsZero())
}

func TestPlace_SnapshotMatchesCartAndClearsIt(t *testing.T) {
	s := reviewSession(t)
	cart := filledCart(t)
	before := cart.Lines()
	subtotal := cart.Total()

	var committed []domain.Order
	o, err := machine().Place(context.Background(), s, cart, "sid-1", "ada@example.com",
		func(_ context.Context, o domain.Order) error {
			committed = append(committed, o)
			return nil
		})
	require.NoError(t, err)
	require.Len(t, committed, 1)
	assert.Equal(t, o, committed[0])

	require.Len(t, o.Items, len(before))
	for i, l := range before {
		assert.Equal(t, l.Key, o.Items[i].Key)
		assert.Equal(t, l.Quantity, o.Items[i].Quantity)
		assert.True(t, l.Price.Equal(o.Items[i].Price))
	}
	assert.True(t, o.Totals.Subtotal.Equal(subtotal))
	assert.Equal(t, "45", o.Totals.Subtotal.String())
	assert.Equal(t, "54.59", o.Totals.Total.String())
	assert.Equal(t, home, o.ShippingAddress)
	assert.Equal(t, card, o.Payment)
	assert.Equal(t, domain.OrderPlaced, o.Status)
	assert.Equal(t, "ord-1", o.ID)

	assert.True(t, cart.Empty())
	assert.Equal(t, checkout.StepPlaced, s.Step)
	assert.Equal(t, "ord-1", s.OrderID)
}

func TestPlace_EmptyCartRejected(t *testing.T) {
	s := reviewSession(t)
	called := false
	_, err := machine().Place(context.Background(), s, store.NewCart(nil), "sid", "", func(context.Context, domain.Order) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)
	assert.False(t, called)
	assert.Equal(t, checkout.StepReview, s.Step)
}

func TestPlace_CommitFailureKeepsCartAndStep(t *testing.T) {
	s := reviewSession(t)
	cart := filledCart(t)
	boom := errors.New("disk full")

	_, err := machine().Place(context.Background(), s, cart, "sid", "", func(context.Context, domain.Order) error { return boom })
	assert.ErrorIs(t, err, checkout.ErrPlacementFailed)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, cart.ItemCount())
	assert.Equal(t, checkout.StepReview, s.Step)
	assert.Empty(t, s.OrderID)
}

func TestPlace_WrongStep(t *testing.T) {
	s := checkout.NewSession()
	_, err := machine().Place(context.Background(), s, filledCart(t), "sid", "", func(context.Context, domain.Order) error { return nil })
	assert.ErrorIs(t, err, checkout.ErrWrongStep)
}

func TestSession_Normalize(t *testing.T) {
	s := &checkout.Session{Step: checkout.StepReview}
	s.Normalize()
	assert.Equal(t, checkout.StepAddress, s.Step)

	s = &checkout.Session{Step: "bogus"}
	s.Normalize()
	assert.Equal(t, checkout.StepAddress, s.Step)

	s = reviewSession(t)
	s.Normalize()
	assert.Equal(t, checkout.StepReview, s.Step)
}

package services

import (
	"context"
	"errors"
	"slices"

	"storefront/internal/checkout"
	"storefront/internal/domain"
	applog "storefront/internal/log"
)

var ErrOrderNotFound = errors.New("order not found")

type CheckoutService struct {
	State   *SessionState
	Machine *checkout.Machine
}

func NewCheckoutService(state *SessionState, m *checkout.Machine) *CheckoutService {
	return &CheckoutService{State: state, Machine: m}
}

type CheckoutView struct {
	Session *checkout.Session `json:"session"`
	Cart    CartView          `json:"cart"`
	Totals  domain.Totals     `json:"totals"`
}

func (s *CheckoutService) view(ctx context.Context, sid string, sess *checkout.Session) (CheckoutView, error) {
	c, err := s.State.Cart(ctx, sid)
	if err != nil {
		return CheckoutView{}, err
	}
	cv := viewOf(c)
	return CheckoutView{Session: sess, Cart: cv, Totals: s.Machine.Pricing.Totals(cv.Total)}, nil
}

func (s *CheckoutService) Get(ctx context.Context, sid string) (CheckoutView, error) {
	sess, err := s.State.Checkout(ctx, sid)
	if err != nil {
		return CheckoutView{}, err
	}
	return s.view(ctx, sid, sess)
}

func (s *CheckoutService) step(ctx context.Context, sid string, f func(*checkout.Session) error) (CheckoutView, error) {
	unlock := s.State.Lock(sid)
	defer unlock()

	sess, err := s.State.Checkout(ctx, sid)
	if err != nil {
		return CheckoutView{}, err
	}
	if err := f(sess); err != nil {
		return CheckoutView{}, err
	}
	if err := s.State.SaveCheckout(ctx, sid, sess); err != nil {
		return CheckoutView{}, err
	}
	return s.view(ctx, sid, sess)
}

func (s *CheckoutService) SetAddress(ctx context.Context, sid string, shipping domain.Address, sameAsShipping bool, billing *domain.Address) (CheckoutView, error) {
	return s.step(ctx, sid, func(sess *checkout.Session) error {
		return sess.SetAddress(shipping, sameAsShipping, billing)
	})
}

func (s *CheckoutService) SetPayment(ctx context.Context, sid string, m domain.PaymentMethod) (CheckoutView, error) {
	return s.step(ctx, sid, func(sess *checkout.Session) error {
		return sess.SetPayment(m)
	})
}

func (s *CheckoutService) Reset(ctx context.Context, sid string) (CheckoutView, error) {
	return s.step(ctx, sid, func(sess *checkout.Session) error {
		sess.Reset()
		return nil
	})
}

// Place turns the session cart into an order. The order document, the
// session's order index, the placed checkout state and the cart removal are
// written in one commit.
func (s *CheckoutService) Place(ctx context.Context, sid, userEmail string) (domain.Order, error) {
	unlock := s.State.Lock(sid)
	defer unlock()

	sess, err := s.State.Checkout(ctx, sid)
	if err != nil {
		return domain.Order{}, err
	}
	cart, err := s.State.Cart(ctx, sid)
	if err != nil {
		return domain.Order{}, err
	}
	ids, err := s.State.OrderIDs(ctx, sid)
	if err != nil {
		return domain.Order{}, err
	}

	commit := func(ctx context.Context, o domain.Order) error {
		placed := *sess
		placed.Step = checkout.StepPlaced
		placed.OrderID = o.ID

		puts := map[string][]byte{}
		for key, v := range map[string]any{
			orderKey(o.ID):   o,
			ordersKey(sid):   append(slices.Clone(ids), o.ID),
			checkoutKey(sid): placed,
		} {
			b, err := encode(v)
			if err != nil {
				return err
			}
			puts[key] = b
		}
		return s.State.Store.Commit(ctx, puts, []string{cartKey(sid)})
	}

	o, err := s.Machine.Place(ctx, sess, cart, sid, userEmail, commit)
	if err != nil {
		if errors.Is(err, checkout.ErrPlacementFailed) {
			applog.Error(nil, "order.place.commit", err, map[string]any{"session": sid})
		}
		return domain.Order{}, err
	}
	return o, nil
}

// Order returns an order placed by this session.
func (s *CheckoutService) Order(ctx context.Context, sid, id string) (domain.Order, error) {
	var o domain.Order
	if err := load(ctx, s.State.Store, orderKey(id), &o); err != nil {
		return domain.Order{}, err
	}
	if o.ID == "" || o.SessionID != sid {
		return domain.Order{}, ErrOrderNotFound
	}
	return o, nil
}

// Orders lists the session's orders, newest first.
func (s *CheckoutService) Orders(ctx context.Context, sid string) ([]domain.Order, error) {
	ids, err := s.State.OrderIDs(ctx, sid)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		o, err := s.Order(ctx, sid, ids[i])
		if errors.Is(err, ErrOrderNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

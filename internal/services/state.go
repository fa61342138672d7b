package services

import (
	"context"
	"encoding/json"
	"sync"

	"storefront/internal/checkout"
	applog "storefront/internal/log"
	"storefront/internal/store"
)

// StateStore is a key-value store of JSON documents. Commit must apply all
// puts and deletes atomically.
type StateStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Commit(ctx context.Context, puts map[string][]byte, deletes []string) error
}

func cartKey(sid string) string     { return "session:" + sid + ":cart" }
func wishlistKey(sid string) string { return "session:" + sid + ":wishlist" }
func userKey(sid string) string     { return "session:" + sid + ":user" }
func checkoutKey(sid string) string { return "session:" + sid + ":checkout" }
func ordersKey(sid string) string   { return "session:" + sid + ":orders" }
func orderKey(id string) string     { return "order:" + id }

// SessionState reads and writes the per-session documents. Callers hold the
// session lock across a read-modify-write.
type SessionState struct {
	Store StateStore

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func NewSessionState(s StateStore) *SessionState {
	return &SessionState{Store: s, locks: map[string]*sessionLock{}}
}

// Lock serializes mutations for one session and returns the unlock func.
func (s *SessionState) Lock(sid string) func() {
	s.mu.Lock()
	l, ok := s.locks[sid]
	if !ok {
		l = &sessionLock{}
		s.locks[sid] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sid)
		}
		s.mu.Unlock()
	}
}

// load decodes key into dst. A missing key leaves dst alone; a corrupt one is
// logged, deleted and also leaves dst alone, so callers fall back to their
// default value.
func load[T any](ctx context.Context, st StateStore, key string, dst *T) error {
	raw, ok, err := st.Get(ctx, key)
	if err != nil || !ok {
		return err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		applog.Warn(nil, "state.corrupt", err, map[string]any{"key": key})
		if derr := st.Delete(ctx, key); derr != nil {
			applog.Error(nil, "state.corrupt.delete", derr, map[string]any{"key": key})
		}
		return nil
	}
	*dst = v
	return nil
}

func encode(v any) ([]byte, error) { return json.Marshal(v) }

func save(ctx context.Context, st StateStore, key string, v any) error {
	b, err := encode(v)
	if err != nil {
		return err
	}
	return st.Put(ctx, key, b)
}

func (s *SessionState) Cart(ctx context.Context, sid string) (*store.Cart, error) {
	var lines []store.Line
	if err := load(ctx, s.Store, cartKey(sid), &lines); err != nil {
		return nil, err
	}
	return store.NewCart(lines), nil
}

func (s *SessionState) SaveCart(ctx context.Context, sid string, c *store.Cart) error {
	if c.Empty() {
		return s.Store.Delete(ctx, cartKey(sid))
	}
	return save(ctx, s.Store, cartKey(sid), c.Lines())
}

func (s *SessionState) Wishlist(ctx context.Context, sid string) (*store.Wishlist, error) {
	var ids []string
	if err := load(ctx, s.Store, wishlistKey(sid), &ids); err != nil {
		return nil, err
	}
	return store.NewWishlist(ids), nil
}

func (s *SessionState) SaveWishlist(ctx context.Context, sid string, w *store.Wishlist) error {
	return save(ctx, s.Store, wishlistKey(sid), w.IDs())
}

func (s *SessionState) Checkout(ctx context.Context, sid string) (*checkout.Session, error) {
	sess := checkout.NewSession()
	if err := load(ctx, s.Store, checkoutKey(sid), sess); err != nil {
		return nil, err
	}
	sess.Normalize()
	return sess, nil
}

func (s *SessionState) SaveCheckout(ctx context.Context, sid string, sess *checkout.Session) error {
	return save(ctx, s.Store, checkoutKey(sid), sess)
}

func (s *SessionState) OrderIDs(ctx context.Context, sid string) ([]string, error) {
	var ids []string
	if err := load(ctx, s.Store, ordersKey(sid), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

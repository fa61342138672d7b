package services

import (
	"context"
	"database/sql"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/repos"

	"golang.org/x/crypto/bcrypt"
)

var ErrBadCreds = errors.New("invalid email or password")

// AuthService binds a demo user to a visitor session. The binding lives in
// the session state store next to the cart.
type AuthService struct {
	Users *repos.UserRepo
	State *SessionState
}

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := save(ctx, s.State.Store, userKey(sid), u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.State.Store.Delete(ctx, userKey(sid))
}

// CurrentUser returns nil without error for anonymous sessions. A session
// bound to a user that no longer exists is signed out.
func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	var bound domain.User
	if err := load(ctx, s.State.Store, userKey(sid), &bound); err != nil {
		return nil, err
	}
	if bound.ID == "" {
		return nil, nil
	}
	u, err := s.Users.ByID(bound.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.Logout(ctx, sid)
	}
	if err != nil {
		return nil, err
	}
	u.Hash = ""
	return u, nil
}

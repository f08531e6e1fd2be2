package services

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"botshop/internal/domain"
	applog "botshop/internal/log"
	"botshop/internal/repos"
)

var ErrBadCreds = errors.New("invalid email or password")

// AuthService binds admin logins to server-side sessions. The handlers
// resolve the session into an identity and pass it to the services as the
// audit actor; no session state lives inside the core.
type AuthService struct {
	Users *repos.UserRepo
}

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

// CurrentUser resolves the session into its bound user and refreshes the
// session's last_seen stamp. The refresh is bookkeeping; its failure never
// blocks an otherwise valid session.
func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	u, err := s.Users.SessionUser(ctx, sid)
	if err != nil {
		return nil, err
	}
	if err := s.Users.TouchSession(ctx, sid); err != nil {
		applog.OpError("auth.session.touch", err, map[string]any{"sid": sid})
	}
	return u, nil
}

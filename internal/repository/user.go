package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fakeyudi/storyapp/internal/api"
	"github.com/fakeyudi/storyapp/internal/output"
	"github.com/fakeyudi/storyapp/internal/session"
)

// ErrMissingLoginResult is reported when the server accepts a login but
// returns no token.
var ErrMissingLoginResult = errors.New("login result is missing")

// SessionStore is the part of *session.Observable the user repository needs.
type SessionStore interface {
	Current() session.Session
	Save(s session.Session) error
	Clear() error
}

// UserRepository handles registration and the login session.
type UserRepository struct {
	api      api.Service
	sessions SessionStore
	log      *zap.Logger
}

func NewUserRepository(svc api.Service, sessions SessionStore, log *zap.Logger) *UserRepository {
	return &UserRepository{api: svc, sessions: sessions, log: log.Named("user")}
}

func (r *UserRepository) Register(ctx context.Context, name, email, password string) <-chan output.Output[*api.RegisterResponse] {
	return run(ctx, r.log, "register", func(ctx context.Context) (*api.RegisterResponse, error) {
		return r.api.Register(ctx, name, email, password)
	})
}

// Login authenticates and, when the server accepts, persists the session.
// A session that cannot be persisted is reported as an Error.
func (r *UserRepository) Login(ctx context.Context, email, password string) <-chan output.Output[*api.LoginResponse] {
	return run(ctx, r.log, "login", func(callCtx context.Context) (*api.LoginResponse, error) {
		resp, err := r.api.Login(callCtx, email, password)
		if err != nil || resp.Error {
			return resp, err
		}
		if resp.LoginResult == nil || resp.LoginResult.Token == "" {
			return nil, ErrMissingLoginResult
		}
		// the caller is gone; its result will be dropped, so do not log in
		if ctx.Err() != nil {
			return resp, nil
		}
		if err := r.sessions.Save(session.Login(email, resp.LoginResult.Token)); err != nil {
			return nil, fmt.Errorf("saving session: %w", err)
		}
		r.log.Info("logged in", zap.String("user_id", resp.LoginResult.UserID))
		return resp, nil
	})
}

// Logout resets the session to the logged-out default.
func (r *UserRepository) Logout() error {
	if err := r.sessions.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	r.log.Info("logged out")
	return nil
}

// Session returns the latest known session.
func (r *UserRepository) Session() session.Session {
	return r.sessions.Current()
}

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"perfhub/internal/platform/db"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const DefaultTokenTTL = 8 * time.Hour

type Session struct {
	Token string      `json:"token"`
	User  UserContext `json:"user"`
}

type Service struct {
	store  StoreAPI
	secret string
	ttl    time.Duration
}

func NewService(store StoreAPI, secret string) *Service {
	return &Service{store: store, secret: secret, ttl: DefaultTokenTTL}
}

// Login checks the password and issues a signed token. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	creds, err := s.store.FindActiveUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, db.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := CheckPassword(creds.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	user := UserContext{
		UserID:         creds.UserID,
		OrganisationID: creds.OrganisationID,
		RoleID:         creds.RoleID,
		RoleName:       creds.RoleName,
	}
	token, err := GenerateToken(s.secret, Claims{
		UserID:         user.UserID,
		OrganisationID: user.OrganisationID,
		RoleID:         user.RoleID,
		RoleName:       user.RoleName,
	}, s.ttl)
	if err != nil {
		return Session{}, err
	}

	if err := s.store.TouchLastLogin(ctx, creds.UserID); err != nil {
		slog.Warn("update last_login failed", "userId", creds.UserID, "err", err)
	}
	return Session{Token: token, User: user}, nil
}

func (s *Service) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	return s.store.HasPermission(ctx, roleID, permission)
}

package auth

import (
	"context"

	"perfhub/internal/platform/db"
)

// Credentials is what login needs to verify a user and issue a token.
type Credentials struct {
	UserID         string
	OrganisationID string
	RoleID         string
	RoleName       string
	FullName       string
	PasswordHash   string
}

type StoreAPI interface {
	FindActiveUserByEmail(ctx context.Context, email string) (Credentials, error)
	TouchLastLogin(ctx context.Context, userID string) error
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}

type Store struct {
	DB db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{DB: q}
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (Credentials, error) {
	var c Credentials
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.organisation_id, u.role_id, r.name, u.full_name, u.password_hash
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE lower(u.email) = lower($1) AND u.status = 'active'
  `, email).Scan(&c.UserID, &c.OrganisationID, &c.RoleID, &c.RoleName, &c.FullName, &c.PasswordHash)
	if err != nil {
		return Credentials{}, db.Classify(err)
	}
	return c, nil
}

func (s *Store) TouchLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM role_permissions rp
    JOIN permissions p ON rp.permission_id = p.id
    WHERE rp.role_id = $1 AND p.key = $2
  `, roleID, permission).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

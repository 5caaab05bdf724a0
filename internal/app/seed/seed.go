package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"perfhub/internal/domain/auth"
	"perfhub/internal/platform/config"
)

// Run creates the bootstrap organisation, its roles and the first HR admin. Every
// step is idempotent so it runs on each start.
func Run(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	orgID, err := ensureOrganisation(ctx, pool, cfg.SeedOrganisationName, cfg.SeedOrganisationTimeZone)
	if err != nil {
		return err
	}

	if err := ensurePermissions(ctx, pool); err != nil {
		return err
	}

	roleIDs, err := ensureRoles(ctx, pool, orgID)
	if err != nil {
		return err
	}

	if err := ensureRolePermissions(ctx, pool, roleIDs); err != nil {
		return err
	}

	return ensureAdminUser(ctx, pool, orgID, roleIDs[auth.RoleHRAdmin], cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureOrganisation(ctx context.Context, pool *pgxpool.Pool, name, zone string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM organisations WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}

	err = pool.QueryRow(ctx, "INSERT INTO organisations (name, time_zone) VALUES ($1, $2) RETURNING id", name, zone).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func ensurePermissions(ctx context.Context, pool *pgxpool.Pool) error {
	for _, perm := range auth.DefaultPermissions {
		if _, err := pool.Exec(ctx, "INSERT INTO permissions (key) VALUES ($1) ON CONFLICT (key) DO NOTHING", perm); err != nil {
			return err
		}
	}
	return nil
}

func ensureRoles(ctx context.Context, pool *pgxpool.Pool, orgID string) (map[string]string, error) {
	roleIDs := map[string]string{}
	for roleName := range auth.RolePermissions {
		var id string
		err := pool.QueryRow(ctx, `
      INSERT INTO roles (organisation_id, name) VALUES ($1, $2)
      ON CONFLICT (organisation_id, name) DO UPDATE SET name = EXCLUDED.name
      RETURNING id
    `, orgID, roleName).Scan(&id)
		if err != nil {
			return nil, err
		}
		roleIDs[roleName] = id
	}
	return roleIDs, nil
}

func ensureRolePermissions(ctx context.Context, pool *pgxpool.Pool, roleIDs map[string]string) error {
	permMap := map[string]string{}
	rows, err := pool.Query(ctx, "SELECT id, key FROM permissions")
	if err != nil {
		return err
	}
	for rows.Next() {
		var id, key string
		if err := rows.Scan(&id, &key); err != nil {
			rows.Close()
			return err
		}
		permMap[key] = id
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for roleName, perms := range auth.RolePermissions {
		roleID := roleIDs[roleName]
		for _, permKey := range perms {
			permID, ok := permMap[permKey]
			if !ok {
				return errors.New("permission not found: " + permKey)
			}
			if _, err := pool.Exec(ctx, "INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", roleID, permID); err != nil {
				return err
			}
		}
	}
	return nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, orgID, roleID, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	if err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id); err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO users (organisation_id, email, full_name, password_hash, role_id)
    VALUES ($1, $2, $3, $4, $5)
  `, orgID, email, "HR Admin", hash, roleID)
	return err
}

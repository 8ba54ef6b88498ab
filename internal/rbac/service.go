// Package rbac provides role based authorization over the portal user tables.
package rbac

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("rbac: not found")

// Service orchestrates RBAC lookups.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs a Service backed by the provided pool.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// EffectivePermissions resolves the flattened permission set for a user code.
func (s *Service) EffectivePermissions(ctx context.Context, userCode string) ([]string, error) {
	userCode = strings.TrimSpace(userCode)
	if userCode == "" {
		return nil, errors.New("rbac: user code required")
	}
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT p.name
FROM portal_users u
JOIN user_roles ur ON ur.user_code = u.code
JOIN role_permissions rp ON rp.role_id = ur.role_id
JOIN permissions p ON p.id = rp.permission_id
WHERE u.code = $1 AND u.active`, userCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		perms = append(perms, name)
	}
	return perms, rows.Err()
}

// HasRole reports whether the user carries the named role. Used by the
// approval fallback (empty approver mapping defers to the admin role).
func (s *Service) HasRole(ctx context.Context, userCode, roleName string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM user_roles ur
JOIN roles r ON r.id = ur.role_id
WHERE ur.user_code = $1 AND upper(r.name) = upper($2))`, userCode, roleName).Scan(&ok)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// UsersWithRole lists the user codes carrying the named role.
func (s *Service) UsersWithRole(ctx context.Context, roleName string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT ur.user_code FROM user_roles ur
JOIN roles r ON r.id = ur.role_id
WHERE upper(r.name) = upper($1)
ORDER BY ur.user_code`, roleName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"shelfwise/internal/domain/model"
)

// CatalogRepository reads the permission catalog and the authentication
// allow-list. Both are read-mostly; admin operations mutate them rarely.
type CatalogRepository interface {
	// IsWhitelisted reports whether the (route, method) action is exempt from
	// authentication. Entries are method-scoped; a shared route name never
	// exempts its mutating methods.
	IsWhitelisted(ctx context.Context, route, method string) (bool, error)

	// HasPermission reports whether any permission reachable through the
	// user's roles matches the route/method pair. (route, method) is not
	// unique across permissions, so this matches against the whole set.
	HasPermission(ctx context.Context, userID, route, method string) (bool, error)

	// PermissionMap compiles route -> methods for a user, or for every
	// permission when all is true (superusers).
	PermissionMap(ctx context.Context, userID string, all bool) (map[string][]string, error)

	ListRoles(ctx context.Context) ([]model.Role, error)
}

type pgCatalogRepository struct {
	db *sql.DB
}

func NewPgCatalogRepository(db *sql.DB) CatalogRepository {
	return &pgCatalogRepository{db: db}
}

func (r *pgCatalogRepository) IsWhitelisted(ctx context.Context, route, method string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM white_list_urls WHERE route_pattern = $1 AND LOWER(method) = LOWER($2))`,
		route, method,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgCatalogRepository.IsWhitelisted: %w", err)
	}
	return exists, nil
}

func (r *pgCatalogRepository) HasPermission(ctx context.Context, userID, route, method string) (bool, error) {
	query := `SELECT EXISTS(
	            SELECT 1 FROM permissions p
	            JOIN role_permissions rp ON rp.permission_id = p.id
	            JOIN user_roles ur ON ur.role_id = rp.role_id
	            WHERE ur.user_id = $1 AND p.route = $2 AND LOWER(p.method) = LOWER($3))`
	var allowed bool
	if err := r.db.QueryRowContext(ctx, query, userID, route, method).Scan(&allowed); err != nil {
		return false, fmt.Errorf("pgCatalogRepository.HasPermission: %w", err)
	}
	return allowed, nil
}

func (r *pgCatalogRepository) PermissionMap(ctx context.Context, userID string, all bool) (map[string][]string, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if all {
		rows, err = r.db.QueryContext(ctx, `SELECT DISTINCT route, LOWER(method) FROM permissions ORDER BY route`)
	} else {
		query := `SELECT DISTINCT p.route, LOWER(p.method) FROM permissions p
		          JOIN role_permissions rp ON rp.permission_id = p.id
		          JOIN user_roles ur ON ur.role_id = rp.role_id
		          WHERE ur.user_id = $1 ORDER BY p.route`
		rows, err = r.db.QueryContext(ctx, query, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("pgCatalogRepository.PermissionMap: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var route, method string
		if err := rows.Scan(&route, &method); err != nil {
			return nil, fmt.Errorf("pgCatalogRepository.PermissionMap scan: %w", err)
		}
		result[route] = append(result[route], method)
	}
	return result, rows.Err()
}

func (r *pgCatalogRepository) ListRoles(ctx context.Context) ([]model.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("pgCatalogRepository.ListRoles: %w", err)
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("pgCatalogRepository.ListRoles scan: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

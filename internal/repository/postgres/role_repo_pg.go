package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type RoleRepository struct {
	db *sqlx.DB
}

func NewRoleRepo(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) FetchRolesForUser(ctx context.Context, userID int64) ([]string, error) {
	const query = `
        SELECT role_name
        FROM user_roles NATURAL JOIN roles
        WHERE user_id = $1
    `
	var roles []string
	if err := r.db.SelectContext(ctx, &roles, query, userID); err != nil {
		return nil, err
	}
	return roles, nil
}

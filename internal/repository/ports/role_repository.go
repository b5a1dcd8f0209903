package ports

import "context"

// RoleRepository is the boundary to the role/team layer. Roles are read at
// login and refresh time to snapshot them into session claims; this core
// never writes them.
type RoleRepository interface {
	FetchRolesForUser(ctx context.Context, userID int64) ([]string, error)
}

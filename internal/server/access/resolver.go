package access

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

// UserFinder is the identity-store lookup the resolver needs.
type UserFinder interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Resolver turns a verified subject id into the live principal, so that a
// role change or a deleted account takes effect before the token expires.
type Resolver struct {
	users UserFinder
}

func NewResolver(users UserFinder) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns common.ErrorNotFound when the identity no longer exists
// and common.ErrTimeout when the lookup ran out of time.
func (r *Resolver) Resolve(ctx context.Context, id int64) (*models.Principal, error) {
	u, err := r.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve principal %d: %w", id, common.WrapTimeout(err))
	}
	return u.Principal(), nil
}

package access

import (
	"context"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

type ctxKey struct{}

var principalKey ctxKey

func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal attached by the gate.
func PrincipalFromContext(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*models.Principal)
	return p, ok && p != nil
}

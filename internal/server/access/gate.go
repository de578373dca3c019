// Package access implements the two-tier access gate: bearer token
// verification, principal resolution and the role capability check.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/auth"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

// State is a step of a single gate evaluation.
type State int

const (
	StateNoToken State = iota
	StateTokenPresent
	StateTokenValid
	StatePrincipalResolved
	StateAuthenticatedAllowed
	StateAdminAllowed
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateNoToken:
		return "no_token"
	case StateTokenPresent:
		return "token_present"
	case StateTokenValid:
		return "token_valid"
	case StatePrincipalResolved:
		return "principal_resolved"
	case StateAuthenticatedAllowed:
		return "authenticated_allowed"
	case StateAdminAllowed:
		return "admin_allowed"
	case StateDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Reason explains a denial.
type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
	// ReasonInternal means the identity store failed; the request is denied
	// but the caller is not told its credential is bad.
	ReasonInternal Reason = "internal"
)

// Decision is the outcome of one evaluation.
type Decision struct {
	Allow     bool
	Principal *models.Principal
	Reason    Reason
	State     State
	cause     error
}

// Err maps a denial to the sentinel the transports understand. It is nil
// when the request was allowed.
func (d Decision) Err() error {
	if d.Allow {
		return nil
	}
	switch d.Reason {
	case ReasonUnauthenticated:
		return common.ErrorUnauthorized
	case ReasonForbidden:
		return common.ErrForbidden
	default:
		if errors.Is(d.cause, common.ErrTimeout) {
			return common.ErrTimeout
		}
		return common.ErrorInternal
	}
}

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type PrincipalResolver interface {
	Resolve(ctx context.Context, id int64) (*models.Principal, error)
}

// Gate guards protected operations. It holds no per-request state.
type Gate struct {
	tokens   TokenVerifier
	resolver PrincipalResolver
	policy   *Policy
	logger   logging.Logger
}

func NewGate(tokens TokenVerifier, resolver PrincipalResolver, policy *Policy, logger logging.Logger) *Gate {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Gate{tokens: tokens, resolver: resolver, policy: policy, logger: logger.With("module", "access")}
}

// Authenticate runs the authenticated tier against an Authorization header
// value and returns the principal or common.ErrorUnauthorized.
func (g *Gate) Authenticate(ctx context.Context, header string) (*models.Principal, error) {
	d := g.Evaluate(ctx, header, TierAuthenticated)
	return d.Principal, d.Err()
}

// AuthenticateAdmin runs the admin tier. A valid non-admin caller gets
// common.ErrForbidden.
func (g *Gate) AuthenticateAdmin(ctx context.Context, header string) (*models.Principal, error) {
	d := g.Evaluate(ctx, header, TierAdmin)
	return d.Principal, d.Err()
}

// Evaluate walks the gate state machine for one request.
func (g *Gate) Evaluate(ctx context.Context, header string, tier Tier) Decision {
	token, ok := bearerToken(header)
	if !ok {
		return g.deny(ctx, ReasonUnauthenticated, "missing or non-bearer credential", nil)
	}

	// StateTokenPresent
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return g.deny(ctx, ReasonUnauthenticated, "token rejected", err)
	}

	// StateTokenValid
	principal, err := g.resolver.Resolve(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return g.deny(ctx, ReasonUnauthenticated, "principal not found", err)
		}
		g.logger.Error(ctx, "principal lookup failed", "user_id", claims.UserID, "error", err)
		return g.deny(ctx, ReasonInternal, "principal lookup failed", err)
	}

	// StatePrincipalResolved
	if !g.policy.Allows(principal.Role, tier.capability()) {
		if tier == TierAdmin && g.policy.Allows(principal.Role, CapAuthenticated) {
			return g.deny(ctx, ReasonForbidden, fmt.Sprintf("role %s lacks %s", principal.Role, tier.capability()), nil)
		}
		return g.deny(ctx, ReasonUnauthenticated, fmt.Sprintf("role %q not recognised", principal.Role), nil)
	}

	state := StateAuthenticatedAllowed
	if tier == TierAdmin {
		state = StateAdminAllowed
	}
	return Decision{Allow: true, Principal: principal, State: state}
}

func (g *Gate) deny(ctx context.Context, reason Reason, detail string, cause error) Decision {
	args := []any{"reason", string(reason), "detail", detail}
	if cause != nil {
		args = append(args, "error", cause)
	}
	g.logger.Debug(ctx, "access denied", args...)
	return Decision{Reason: reason, State: StateDenied, cause: cause}
}

// bearerToken splits "Bearer <token>". The scheme is matched
// case-insensitively; anything else, or an empty token, is rejected.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

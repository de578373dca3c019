package access

import "github.com/dmitrijs2005/filekeeper/internal/server/models"

// Capability is an operation class a role may be granted.
type Capability string

const (
	CapAuthenticated Capability = "authenticated"
	CapAdmin         Capability = "admin"
)

// Tier selects which capability a protected operation requires.
type Tier int

const (
	TierAuthenticated Tier = iota
	TierAdmin
)

func (t Tier) String() string {
	if t == TierAdmin {
		return "admin"
	}
	return "authenticated"
}

func (t Tier) capability() Capability {
	if t == TierAdmin {
		return CapAdmin
	}
	return CapAuthenticated
}

// Policy maps roles to granted capabilities. It is read-only after
// construction and safe for concurrent use.
type Policy struct {
	grants map[models.Role]map[Capability]struct{}
}

func NewPolicy(grants map[models.Role][]Capability) *Policy {
	p := &Policy{grants: make(map[models.Role]map[Capability]struct{}, len(grants))}
	for role, caps := range grants {
		set := make(map[Capability]struct{}, len(caps))
		for _, c := range caps {
			set[c] = struct{}{}
		}
		p.grants[role] = set
	}
	return p
}

// DefaultPolicy grants every known role the authenticated tier and only
// ROLE_ADMIN the admin tier.
func DefaultPolicy() *Policy {
	return NewPolicy(map[models.Role][]Capability{
		models.RoleUser:  {CapAuthenticated},
		models.RoleAdmin: {CapAuthenticated, CapAdmin},
	})
}

func (p *Policy) Allows(role models.Role, c Capability) bool {
	_, ok := p.grants[role][c]
	return ok
}

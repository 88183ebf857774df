package session

import pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"

// Tier is the access level a view or operation demands.
type Tier int

const (
	TierAuthenticated Tier = iota
	TierAdmin
)

type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	}
	return "unknown"
}

// Guard decides whether the current session may enter tier.
func (m *Manager) Guard(tier Tier) Decision {
	s, ok := m.Current()
	return decide(s, ok, tier)
}

func decide(s Session, ok bool, tier Tier) Decision {
	if !ok {
		return RedirectLogin
	}
	if tier == TierAdmin && !s.IsAdmin {
		return RedirectHome
	}
	return Allow
}

// Require is Guard as an error: AUTH_REQUIRED when anonymous, FORBIDDEN
// when the tier is out of reach.
func (m *Manager) Require(tier Tier) (Session, error) {
	s, ok := m.Current()
	switch decide(s, ok, tier) {
	case RedirectLogin:
		return Session{}, pkgerrors.New(pkgerrors.CodeAuthRequired, "please sign in to continue")
	case RedirectHome:
		return Session{}, pkgerrors.New(pkgerrors.CodeForbidden, "not authorized as an admin")
	}
	return s, nil
}

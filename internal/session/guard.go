package session

import "labloan-client/internal/model"

// Decision is the outcome of a view-access check.
type Decision int

const (
	// Allow admits the caller to the view.
	Allow Decision = iota
	// RedirectLogin sends the caller to the login entry point.
	RedirectLogin
	// RedirectDefault sends the caller to their role's landing view.
	RedirectDefault
)

// Guard is the access gate evaluated before every protected view. It has no
// state of its own beyond the two stored session values.
type Guard struct {
	store Store
}

// NewGuard returns a guard reading from the given store.
func NewGuard(store Store) *Guard {
	return &Guard{store: store}
}

// Check decides whether a view restricted to the allowed roles is reachable.
// An empty allowed set admits any authenticated role. The stored role is
// returned so the caller can name the redirect target.
func (g *Guard) Check(allowed ...model.Role) (Decision, model.Role, error) {
	token, err := g.store.Token()
	if err != nil {
		return RedirectLogin, "", err
	}
	if token == "" {
		return RedirectLogin, "", nil
	}

	role, err := g.store.Role()
	if err != nil {
		return RedirectLogin, "", err
	}
	if role == "" {
		return RedirectLogin, "", nil
	}

	if len(allowed) == 0 {
		return Allow, role, nil
	}
	for _, a := range allowed {
		if a == role {
			return Allow, role, nil
		}
	}
	return RedirectDefault, role, nil
}

// Expire clears the stored credentials after the backend rejected them. The
// next Check redirects to login.
func (g *Guard) Expire() error {
	return g.store.Clear()
}

// DefaultView names the landing view for a role: students get the catalog,
// administrative roles the overview.
func DefaultView(role model.Role) string {
	if role.Administrative() {
		return "dashboard"
	}
	return "catalog"
}

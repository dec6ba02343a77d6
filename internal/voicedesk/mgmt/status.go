package mgmt

import "fmt"

// StatusKind classifies an account's sign-on state.
type StatusKind int

const (
	// StatusNoAccount means the directory lookup found no matching account.
	StatusNoAccount StatusKind = iota
	// StatusDisabled means the profile is disabled after failed sign-ons.
	StatusDisabled
	// StatusNoPassword means the profile has no password set.
	StatusNoPassword
	// StatusExpired means the password is set to expire.
	StatusExpired
	// StatusActive means the profile is usable.
	StatusActive
	// StatusError means the status could not be determined.
	StatusError
)

// Status is the normalized result of an account-status lookup.
type Status struct {
	Kind StatusKind
	// Attempts is the invalid sign-on count, set only for StatusDisabled.
	Attempts int
}

// Render produces the wire string the NLU workspace's dialog tree matches
// against.  The values are historical: the workspace was trained on them, so
// they are rendered only here, at the boundary.
func (s Status) Render() string {
	switch s.Kind {
	case StatusNoAccount:
		return "204"
	case StatusDisabled:
		return fmt.Sprintf("DISABLED(%d)", s.Attempts)
	case StatusNoPassword:
		return "NO_PASSWORD"
	case StatusExpired:
		return "PASSWORD_EXPIRED"
	case StatusActive:
		return "200"
	default:
		return "500"
	}
}

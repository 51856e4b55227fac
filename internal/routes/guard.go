// Package routes decides which screen a user in a given authentication state
// is allowed to see, and where to send them instead when they are not.
package routes

// Page identifies a navigable screen.
type Page string

const (
	PageLogin      Page = "login"
	PageChallenges Page = "challenges"
	PageScoreboard Page = "scoreboard"
	PageAdmin      Page = "admin"
)

// State is the authentication tier the guard reasons about.
type State int

const (
	Unauthenticated State = iota
	AuthenticatedUser
	AuthenticatedAdmin
)

// StateFor maps a session snapshot to a guard state.
func StateFor(authenticated bool, role string) State {
	if !authenticated {
		return Unauthenticated
	}
	if role == "admin" {
		return AuthenticatedAdmin
	}
	return AuthenticatedUser
}

// Resolve returns the page the user should actually be on. It converges in
// one step: the result is always a fixed point, so callers never loop.
func Resolve(st State, page Page) Page {
	if st == Unauthenticated {
		return PageLogin
	}
	switch page {
	case PageLogin:
		if st == AuthenticatedAdmin {
			return PageAdmin
		}
		return PageChallenges
	case PageAdmin:
		if st != AuthenticatedAdmin {
			return PageChallenges
		}
		return PageAdmin
	default:
		return page
	}
}

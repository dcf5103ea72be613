package httpapi

import "strings"

// Action is what the page guard does with a navigation.
type Action int

const (
	Pass Action = iota
	Redirect
)

// Decision is the outcome of Decide.
type Decision struct {
	Action   Action
	Location string
}

const (
	loginPath = "/login"
	homePath  = "/"
)

// unguardedPrefixes are never matched by the page guard.
var unguardedPrefixes = []string{"/api", "/static", "/favicon.ico"}

// Decide applies the navigation policy: a signed-in user is sent away from
// the login page, everyone else is sent to it.
func Decide(path string, authenticated bool) Decision {
	for _, p := range unguardedPrefixes {
		if strings.HasPrefix(path, p) {
			return Decision{Action: Pass}
		}
	}

	switch {
	case authenticated && path == loginPath:
		return Decision{Action: Redirect, Location: homePath}
	case !authenticated && path != loginPath:
		return Decision{Action: Redirect, Location: loginPath}
	default:
		return Decision{Action: Pass}
	}
}

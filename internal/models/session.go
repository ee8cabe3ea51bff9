package models

// Session is the per-client authentication state threaded through each
// request: either anonymous or bound to exactly one username. Sessions are
// ephemeral and never survive a process restart.
type Session struct {
	Username string `json:"username,omitempty"`
}

// Anonymous is the zero session used for unauthenticated requests.
var Anonymous = Session{}

// IsAuthenticated reports whether the session is bound to a username.
func (s Session) IsAuthenticated() bool {
	return s.Username != ""
}

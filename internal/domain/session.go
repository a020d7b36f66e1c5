// Path: internal/domain/session.go
package domain

import "strconv"

// Session identifies the user a request is made on behalf of. It is built
// once per request by the delivery layer and handed explicitly to every
// operation that depends on who is asking.
type Session struct {
	UserID   int
	UserName string
}

// Anonymous returns the session of a visitor who is not logged in.
func Anonymous() Session {
	return Session{}
}

// IsLoggedIn reports whether the session belongs to a known user.
func (s Session) IsLoggedIn() bool {
	return s.UserID > 0
}

// Subject returns the user ID as the string key used by storage.
func (s Session) Subject() string {
	if !s.IsLoggedIn() {
		return ""
	}
	return strconv.Itoa(s.UserID)
}

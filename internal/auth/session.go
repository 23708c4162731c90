package auth

import (
	"os"
	"strings"
)

// EmailDomain is appended to usernames when talking to the hosted auth
// service, which only understands email identities.
const EmailDomain = "vocab.app"

// Session is the authenticated identity handed to the sync subsystem.
// The core never authenticates by itself; it only consumes the stable
// user id a session provides.
type Session struct {
	UserID   string
	Username string
}

// FromEnv builds a session from SYNC_USER_ID, the identity the host
// application resolved before starting the daemon. An unset id means
// local-only mode: the second return value is false and no sync is
// scheduled.
func FromEnv() (*Session, bool) {
	userID := os.Getenv("SYNC_USER_ID")
	if userID == "" {
		return nil, false
	}
	// The host hands the identity back the way the auth service stores
	// it, as an email on the vocab.app domain; keep the bare username
	return &Session{
		UserID:   userID,
		Username: EmailToUsername(os.Getenv("SYNC_USERNAME")),
	}, true
}

// UsernameToEmail converts a username to the email form the auth
// service stores.
func UsernameToEmail(username string) string {
	return strings.ToLower(strings.TrimSpace(username)) + "@" + EmailDomain
}

// EmailToUsername extracts the username back out of a stored email.
func EmailToUsername(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

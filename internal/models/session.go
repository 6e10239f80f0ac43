package models

import "time"

// Session authorizes a client to act as UserID until it expires or is
// invalidated. The client never sees TokenHash; it holds the raw token in
// the session cookie.
type Session struct {
	ID        string
	UserID    string
	TokenHash []byte
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}

package session

import "time"

// Session is one authenticated login.
type Session struct {
	// ID is the hex SHA-256 of the client's token.
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	IPAddress string
	UserAgent string
}

// Metadata is optional client information recorded at creation.
type Metadata struct {
	IPAddress string
	UserAgent string
}

// ExpiredAt reports whether s is expired at now.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

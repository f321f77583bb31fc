package store

import "strings"

// IsUniqueViolation reports whether err is a SQLite unique constraint
// failure. The driver exposes no typed error for this, so the message is
// matched.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

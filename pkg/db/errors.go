package db

import "strings"

// IsUniqueViolation reports whether err reads as a Postgres duplicate-key
// failure. With constraintName set, only violations naming that constraint
// match; otherwise any unique index violation does.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}

package env

import "os"

// Get reads an environment variable, falling back when it is unset or empty.
// Empty and unset are deliberately treated the same.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

package types

import (
	"strings"

	"github.com/farmstandhq/farmstand-backend/pkg/enums"
)

// FarmerStatuses maps a farmer's email to that farmer's fulfillment status
// for one order. Keys are lowercased emails.
type FarmerStatuses map[string]enums.OrderStatus

// Get looks up the status for a farmer email, normalizing case.
func (f FarmerStatuses) Get(email string) (enums.OrderStatus, bool) {
	if f == nil {
		return "", false
	}
	status, ok := f[NormalizeEmail(email)]
	return status, ok
}

// Set records the status for a farmer email, normalizing case.
func (f FarmerStatuses) Set(email string, status enums.OrderStatus) {
	f[NormalizeEmail(email)] = status
}

// Clone returns a shallow copy, safe to mutate independently.
func (f FarmerStatuses) Clone() FarmerStatuses {
	if f == nil {
		return nil
	}
	out := make(FarmerStatuses, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Shared returns the single status all farmers agree on, or false when
// statuses diverge or the map is empty.
func (f FarmerStatuses) Shared() (enums.OrderStatus, bool) {
	var shared enums.OrderStatus
	first := true
	for _, status := range f {
		if first {
			shared = status
			first = false
			continue
		}
		if status != shared {
			return "", false
		}
	}
	if first {
		return "", false
	}
	return shared, true
}

// NormalizeEmail lowercases and trims an email for use as a map key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

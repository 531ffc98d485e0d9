package db

import (
	"errors"
	"testing"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := errors.New(`ERROR: duplicate key value violates unique constraint "idx_farmers_email" (SQLSTATE 23505)`)

	if !IsUniqueViolation(dup, "") {
		t.Error("expected a duplicate key error to match without a constraint name")
	}
	if !IsUniqueViolation(dup, "idx_farmers_email") {
		t.Error("expected the named constraint to match")
	}
	if IsUniqueViolation(dup, "idx_users_email") {
		t.Error("a different constraint name must not match")
	}
	if IsUniqueViolation(errors.New("connection refused"), "") {
		t.Error("unrelated errors must not match")
	}
	if IsUniqueViolation(nil, "") {
		t.Error("nil never matches")
	}
}

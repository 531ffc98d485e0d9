package repo

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return conn
}

func TestNewBaseStoresConnection(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	if base.db != db {
		t.Fatalf("expected base to hold the provided connection")
	}
}

func TestBaseDBBindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")
	bound := base.DB(ctx)

	if bound == nil {
		t.Fatal("expected a connection when a context is given")
	}
	if bound.Statement == nil || bound.Statement.Context != ctx {
		t.Fatalf("expected the context to flow into the statement, got %v", bound.Statement)
	}

	if got := base.DB(nil); got != db {
		t.Fatal("a nil context must return the raw connection")
	}
}

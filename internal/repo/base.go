package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the GORM handle the domain repositories embed. It keeps
// context binding in one place instead of repeating WithContext at every
// call site.
type Base struct {
	db *gorm.DB
}

// NewBase wraps the connection for embedding in a repository.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx, or the raw connection when ctx
// is nil.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

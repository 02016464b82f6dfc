package repository

import (
	"errors"

	"github.com/oksasatya/go-graphql-blog/internal/domain/filter"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique constraint (user email) is violated.
	ErrConflict = errors.New("record conflicts with an existing one")
)

// Page selects a window of an ordered listing.
// First == 0 means no limit. After is an exclusive cursor (entity id).
type Page struct {
	First   int
	Skip    int
	After   string
	OrderBy filter.Order
}

type Query struct {
	Where filter.Expr
	Page  Page
}

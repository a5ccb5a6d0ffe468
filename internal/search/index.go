// Package search maintains the denormalized user projection used for fuzzy
// lookups. Indexing is best-effort at the call sites: a write failure never
// fails the enclosing request.
package search

import (
	"context"

	"github.com/metachat/accounts/internal/domain"
)

// Document is the user projection kept in the index.
type Document struct {
	ID     string
	Name   string
	Email  string
	Phone  string
	Avatar string
}

// Page is one page of scored results plus the total hit count.
type Page struct {
	Items []domain.Summary
	Total int64
}

type UserIndex interface {
	Index(ctx context.Context, doc Document) error
	Delete(ctx context.Context, id string) error
	// SearchName ranks exact name matches above plain matches above fuzzy
	// matches (5x / 3x / 1x).
	SearchName(ctx context.Context, q string, page, limit int) (Page, error)
	// SearchEmail matches the email field exactly.
	SearchEmail(ctx context.Context, email string, page, limit int) (Page, error)
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/metachat/accounts/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	// GetByIDs returns the users for the given id strings, capped at limit.
	GetByIDs(ctx context.Context, ids []string, limit int) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	// FindByPhone is the paginated exact-phone lookup used by friend search.
	FindByPhone(ctx context.Context, phone string, offset, limit int) ([]*domain.User, int64, error)
	// SearchByName does a case-insensitive substring match over first and
	// last name, capped at limit.
	SearchByName(ctx context.Context, term string, limit int) ([]*domain.User, error)
}

type Repositories struct {
	User UserRepository
}

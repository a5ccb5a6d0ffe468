package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/metachat/accounts/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// DiscardLogger is a slog.Logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// UserBuilder builds users into a FakeUserRepo.
type UserBuilder struct {
	user     domain.User
	password string
}

func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		user: domain.User{
			ID:        uuid.New(),
			Name:      "Test User",
			Gender:    domain.GenderUnknown,
			Role:      domain.RoleUser,
			Status:    domain.StatusActive,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		password: "password123",
	}
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = &email
	return b
}

func (b *UserBuilder) WithPhone(phone string) *UserBuilder {
	b.user.Phone = &phone
	return b
}

func (b *UserBuilder) WithName(first, last string) *UserBuilder {
	b.user.FirstName = first
	b.user.LastName = last
	b.user.Name = first + " " + last
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

func (b *UserBuilder) WithFriends(ids ...string) *UserBuilder {
	b.user.Friends = ids
	return b
}

func (b *UserBuilder) WithAvatar(avatar string) *UserBuilder {
	b.user.Avatar = avatar
	return b
}

// Build hashes the password, stores the user and returns it along with the
// raw password.
func (b *UserBuilder) Build(t *testing.T, repo *FakeUserRepo) (*domain.User, string) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	b.user.PasswordHash = string(hashed)

	if err := repo.Create(context.Background(), &b.user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &b.user, b.password
}

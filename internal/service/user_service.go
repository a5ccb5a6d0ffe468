package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/metachat/accounts/internal/domain"
	"github.com/metachat/accounts/internal/repository"
	"github.com/metachat/accounts/internal/search"
	"github.com/metachat/accounts/internal/storage"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	users   repository.UserRepository
	index   search.UserIndex
	avatars *storage.AvatarStore
	logger  *slog.Logger
}

func NewUserService(users repository.UserRepository, index search.UserIndex, avatars *storage.AvatarStore, logger *slog.Logger) *UserService {
	return &UserService{users: users, index: index, avatars: avatars, logger: logger}
}

// UpdateInput carries the profile fields to change. Nil pointers mean "leave
// as is".
type UpdateInput struct {
	Email     *string
	Phone     *string
	Password  *string
	FirstName *string
	LastName  *string
	Birthday  *time.Time
	Gender    *string
	Avatar    *string
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.E(domain.KindNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*domain.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := domain.NormalizeEmail(*input.Email)
		if email != nil && (user.Email == nil || *email != *user.Email) {
			if _, err := s.users.GetByEmail(ctx, *email); err == nil {
				return nil, domain.E(domain.KindConflict, "email already in use")
			}
		}
		user.Email = email
	}

	if input.Phone != nil {
		phone := domain.NormalizePhone(*input.Phone)
		if phone != nil && (user.Phone == nil || *phone != *user.Phone) {
			if _, err := s.users.GetByPhone(ctx, *phone); err == nil {
				return nil, domain.E(domain.KindConflict, "phone already in use")
			}
		}
		user.Phone = phone
	}

	if user.Email == nil && user.Phone == nil {
		return nil, domain.E(domain.KindInvalidArgument, "email or phone must remain set")
	}

	if input.Password != nil && *input.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hashed)
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Birthday != nil {
		user.Birthday = input.Birthday
	}
	if input.Gender != nil {
		user.Gender = domain.NormalizeGender(*input.Gender)
	}
	if input.Avatar != nil {
		user.Avatar = *input.Avatar
	}

	if input.FirstName != nil || input.LastName != nil {
		user.Name = domain.DeriveName(user.FirstName, user.LastName, user.Email, user.Phone)
	}
	user.UpdatedAt = time.Now()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.reindex(ctx, user)

	return user, nil
}

// UploadAvatar stores the image and records its public URL on the profile.
func (s *UserService) UploadAvatar(ctx context.Context, id uuid.UUID, filename string, body io.Reader, size int64, contentType string) (*domain.User, error) {
	if s.avatars == nil {
		return nil, domain.E(domain.KindInternal, "avatar storage is not configured")
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%d%s", id, time.Now().UnixNano(), path.Ext(filename))
	url, err := s.avatars.Put(ctx, key, body, size, contentType)
	if err != nil {
		return nil, err
	}

	user.Avatar = url
	user.UpdatedAt = time.Now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.reindex(ctx, user)

	return user, nil
}

func (s *UserService) reindex(ctx context.Context, user *domain.User) {
	doc := search.Document{
		ID:     user.ID.String(),
		Name:   user.Name,
		Avatar: user.Avatar,
	}
	if user.Email != nil {
		doc.Email = *user.Email
	}
	if user.Phone != nil {
		doc.Phone = *user.Phone
	}
	if err := s.index.Index(ctx, doc); err != nil {
		s.logger.Warn("user reindexing failed", "user_id", doc.ID, "error", err)
	}
}

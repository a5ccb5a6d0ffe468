package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/metachat/accounts/internal/domain"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.Wrap(domain.KindConflict, "email or phone already in use", err)
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "phone = ?", phone).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string, limit int) ([]*domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []*domain.User
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Where("status = ?", domain.StatusActive).
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Save(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.Wrap(domain.KindConflict, "email or phone already in use", err)
	}
	return err
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

func (r *userRepository) FindByPhone(ctx context.Context, phone string, offset, limit int) ([]*domain.User, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&domain.User{}).Where("phone = ?", phone)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*domain.User
	err := q.Offset(offset).Limit(limit).Find(&users).Error
	return users, total, err
}

func (r *userRepository) SearchByName(ctx context.Context, term string, limit int) ([]*domain.User, error) {
	var users []*domain.User
	pattern := "%" + term + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", pattern, pattern).
		Limit(limit).
		Find(&users).Error
	return users, err
}

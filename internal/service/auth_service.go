package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/metachat/accounts/internal/cache"
	"github.com/metachat/accounts/internal/domain"
	"github.com/metachat/accounts/internal/event"
	"github.com/metachat/accounts/internal/repository"
	"github.com/metachat/accounts/internal/search"
	"github.com/metachat/accounts/internal/token"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// googleDefaultPassword is the placeholder credential for accounts created
// through an external identity provider.
const googleDefaultPassword = "google-default-pass"

type AuthService struct {
	users     repository.UserRepository
	tokens    *token.Service
	cache     cache.Cache
	publisher event.Publisher
	index     search.UserIndex
	otpTTL    time.Duration
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *token.Service,
	c cache.Cache,
	publisher event.Publisher,
	index search.UserIndex,
	otpTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		cache:     c,
		publisher: publisher,
		index:     index,
		otpTTL:    otpTTL,
		logger:    logger,
	}
}

type RegisterInput struct {
	Email     string
	Phone     string
	Password  string
	FirstName string
	LastName  string
	Birthday  *time.Time
	Gender    string
	Avatar    string
}

type LoginInput struct {
	Email    string
	Phone    string
	Password string
	DeviceID string
	FcmToken string
}

type GoogleUser struct {
	Email     string
	Name      string
	FirstName string
	LastName  string
	Birthday  *time.Time
	Gender    string
	Avatar    string
	Password  string
}

type GoogleLoginInput struct {
	User     GoogleUser
	DeviceID string
	FcmToken string
}

type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := domain.NormalizeEmail(input.Email)
	phone := domain.NormalizePhone(input.Phone)

	if email == nil && phone == nil {
		return nil, domain.E(domain.KindInvalidArgument, "email or phone is required")
	}

	if email != nil {
		if _, err := s.users.GetByEmail(ctx, *email); err == nil {
			return nil, domain.E(domain.KindConflict, "email already in use")
		}
	}
	if phone != nil {
		if _, err := s.users.GetByPhone(ctx, *phone); err == nil {
			return nil, domain.E(domain.KindConflict, "phone already in use")
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hashed),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Name:         domain.DeriveName(input.FirstName, input.LastName, email, phone),
		Birthday:     input.Birthday,
		Gender:       domain.NormalizeGender(input.Gender),
		Avatar:       input.Avatar,
		Role:         domain.RoleUser,
		Status:       domain.StatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.indexUser(ctx, user)

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := domain.NormalizeEmail(input.Email)
	phone := domain.NormalizePhone(input.Phone)

	if email == nil && phone == nil {
		return nil, domain.E(domain.KindInvalidArgument, "email or phone is required")
	}

	var (
		user *domain.User
		err  error
	)
	if email != nil {
		user, err = s.users.GetByEmail(ctx, *email)
	} else {
		user, err = s.users.GetByPhone(ctx, *phone)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.E(domain.KindUnauthorized, "invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, domain.E(domain.KindUnauthorized, "invalid credentials")
	}

	if input.DeviceID != "" {
		s.tokens.ResetDeviceState(ctx, user.ID.String(), input.DeviceID)
	}
	if input.FcmToken != "" {
		s.publishFcmToken(ctx, event.FcmTokenSet, user.ID.String(), input.FcmToken)
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, input GoogleLoginInput) (*AuthResult, error) {
	email := domain.NormalizeEmail(input.User.Email)
	if email == nil {
		return nil, domain.E(domain.KindInvalidArgument, "a valid email is required")
	}

	user, err := s.users.GetByEmail(ctx, *email)
	switch {
	case err == nil:
		// Matching email is sufficient; a password, when supplied, must
		// still match.
		if input.User.Password != "" {
			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.User.Password)); err != nil {
				return nil, domain.E(domain.KindUnauthorized, "invalid password")
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = s.createGoogleUser(ctx, *email, input.User)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if input.DeviceID != "" {
		s.tokens.ResetDeviceState(ctx, user.ID.String(), input.DeviceID)
	}
	if input.FcmToken != "" {
		s.publishFcmToken(ctx, event.FcmTokenSet, user.ID.String(), input.FcmToken)
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) createGoogleUser(ctx context.Context, email string, g GoogleUser) (*domain.User, error) {
	password := g.Password
	if password == "" {
		password = googleDefaultPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	name := g.Name
	if name == "" {
		name = domain.DeriveName(g.FirstName, g.LastName, &email, nil)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        &email,
		PasswordHash: string(hashed),
		FirstName:    g.FirstName,
		LastName:     g.LastName,
		Name:         name,
		Birthday:     g.Birthday,
		Gender:       domain.NormalizeGender(g.Gender),
		Avatar:       g.Avatar,
		Role:         domain.RoleUser,
		Status:       domain.StatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.indexUser(ctx, user)

	return user, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.E(domain.KindUnauthorized, "user no longer exists")
		}
		return nil, err
	}

	access, err := s.tokens.IssueAccess(ctx, user.Summary())
	if err != nil {
		return nil, err
	}

	// The presented refresh token stays valid and is returned unchanged.
	return &AuthResult{User: user, AccessToken: access, RefreshToken: refreshToken}, nil
}

// ForgetPassword resolves the identifier, stores a single-use OTP and
// publishes an event for the delivery service. The OTP itself is never
// returned to the caller.
func (s *AuthService) ForgetPassword(ctx context.Context, identifier string) (uuid.UUID, error) {
	var (
		user *domain.User
		err  error
	)
	switch {
	case domain.ValidEmail(identifier):
		email := domain.NormalizeEmail(identifier)
		user, err = s.users.GetByEmail(ctx, *email)
	case domain.ClassifyPhone(identifier).PhoneLike:
		phone := domain.NormalizePhone(identifier)
		user, err = s.users.GetByPhone(ctx, *phone)
	default:
		return uuid.Nil, domain.E(domain.KindInvalidArgument, "a valid email or phone is required")
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, domain.E(domain.KindNotFound, "user not found")
		}
		return uuid.Nil, err
	}

	otp, err := generateOTP()
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.cache.Set(ctx, cache.OTPKey(user.ID.String()), []byte(otp), s.otpTTL); err != nil {
		return uuid.Nil, fmt.Errorf("store otp: %w", err)
	}

	if err := s.publisher.Publish(ctx, event.OTPIssued, map[string]any{
		"user_id": user.ID.String(),
		"otp":     otp,
	}); err != nil {
		return uuid.Nil, fmt.Errorf("publish otp event: %w", err)
	}

	return user.ID, nil
}

// VerifyOTP checks the submitted code against the cached one and consumes
// it on success.
func (s *AuthService) VerifyOTP(ctx context.Context, userID uuid.UUID, otp string) error {
	key := cache.OTPKey(userID.String())

	stored, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return domain.E(domain.KindInvalidArgument, "otp expired or not issued")
		}
		return err
	}

	if string(stored) != otp {
		return domain.E(domain.KindInvalidArgument, "incorrect otp")
	}

	return s.cache.Del(ctx, key)
}

func (s *AuthService) ResetPassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	if newPassword == "" {
		return domain.E(domain.KindInvalidArgument, "password is required")
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.E(domain.KindNotFound, "user not found")
		}
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, string(hashed))
}

func (s *AuthService) SetFcmToken(ctx context.Context, userID, fcmToken string) error {
	return s.publisher.Publish(ctx, event.FcmTokenSet, map[string]any{
		"user_id":  userID,
		"fcmtoken": fcmToken,
	})
}

func (s *AuthService) RemoveFcmToken(ctx context.Context, userID, fcmToken string) error {
	return s.publisher.Publish(ctx, event.FcmTokenRemove, map[string]any{
		"user_id":  userID,
		"fcmtoken": fcmToken,
	})
}

// Logout revokes the presented token and clears the device push token.
// Every step is best-effort; logout never fails.
func (s *AuthService) Logout(ctx context.Context, accessToken, userID, fcmToken string) {
	if accessToken != "" {
		if err := s.tokens.Revoke(ctx, accessToken); err != nil {
			s.logger.Error("token revoke failed", "error", err)
		}
	}
	if userID != "" && fcmToken != "" {
		s.publishFcmToken(ctx, event.FcmTokenRemove, userID, fcmToken)
	}
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*AuthResult, error) {
	sum := user.Summary()

	// Access and refresh issuance have no ordering dependency.
	var access, refresh string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		access, err = s.tokens.IssueAccess(gctx, sum)
		return err
	})
	g.Go(func() error {
		var err error
		refresh, err = s.tokens.IssueRefresh(gctx, sum)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) publishFcmToken(ctx context.Context, routingKey, userID, fcmToken string) {
	err := s.publisher.Publish(ctx, routingKey, map[string]any{
		"user_id":  userID,
		"fcmtoken": fcmToken,
	})
	if err != nil {
		s.logger.Error("fcm token event publish failed", "routing_key", routingKey, "user_id", userID, "error", err)
	}
}

func (s *AuthService) indexUser(ctx context.Context, user *domain.User) {
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
		s.logger.Warn("user indexing failed", "user_id", doc.ID, "error", err)
	}
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

package service

import (
	"log/slog"
	"time"

	"github.com/metachat/accounts/internal/cache"
	"github.com/metachat/accounts/internal/event"
	"github.com/metachat/accounts/internal/repository"
	"github.com/metachat/accounts/internal/search"
	"github.com/metachat/accounts/internal/storage"
	"github.com/metachat/accounts/internal/token"
)

type Services struct {
	Auth   *AuthService
	User   *UserService
	Search *SearchService
	Tokens *token.Service
}

func NewServices(
	repos *repository.Repositories,
	tokens *token.Service,
	c cache.Cache,
	publisher event.Publisher,
	index search.UserIndex,
	avatars *storage.AvatarStore,
	otpTTL time.Duration,
	logger *slog.Logger,
) *Services {
	return &Services{
		Auth:   NewAuthService(repos.User, tokens, c, publisher, index, otpTTL, logger),
		User:   NewUserService(repos.User, index, avatars, logger),
		Search: NewSearchService(repos.User, index, logger),
		Tokens: tokens,
	}
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/metachat/accounts/internal/domain"
	"github.com/metachat/accounts/internal/repository"
	"github.com/metachat/accounts/internal/search"
	"gorm.io/gorm"
)

const (
	friendListCap = 15
	nameMatchCap  = 20
	defaultLimit  = 10
)

// SearchService dispatches a free-form query to the backing source that can
// answer it: phone-like input goes to the store for an exact match, email
// and plain text go to the search index, and "@" prefixes resolve against
// the friend graph.
type SearchService struct {
	users  repository.UserRepository
	index  search.UserIndex
	logger *slog.Logger
}

func NewSearchService(users repository.UserRepository, index search.UserIndex, logger *slog.Logger) *SearchService {
	return &SearchService{users: users, index: index, logger: logger}
}

type PageResult struct {
	Items   []domain.Summary `json:"items"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
	HasMore bool             `json:"hasMore"`
}

// Search resolves query for the caller identified by callerID (may be
// empty). Pagination is 1-based.
func (s *SearchService) Search(ctx context.Context, callerID, query string, page, limit int) (PageResult, error) {
	text := strings.TrimSpace(query)
	if text == "" {
		return PageResult{}, domain.E(domain.KindInvalidArgument, "missing search text")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}

	var (
		items []domain.Summary
		total int64
		err   error
	)

	pq := domain.ClassifyPhone(text)
	switch {
	case pq.PhoneLike:
		items, total, err = s.byPhone(ctx, pq, page, limit)
	case domain.ValidEmail(text):
		var pg search.Page
		pg, err = s.index.SearchEmail(ctx, strings.ToLower(text), page, limit)
		items, total = pg.Items, pg.Total
	case text == "@":
		items, err = s.friendsOf(ctx, callerID)
		total = int64(len(items))
	case strings.HasPrefix(text, "@"):
		items, err = s.byNameSubstring(ctx, strings.TrimPrefix(text, "@"))
		total = int64(len(items))
	default:
		var pg search.Page
		pg, err = s.index.SearchName(ctx, text, page, limit)
		items, total = pg.Items, pg.Total
	}
	if err != nil {
		return PageResult{}, err
	}

	return PageResult{
		Items:   items,
		Total:   total,
		Page:    page,
		Limit:   limit,
		HasMore: int64(page*limit) < total,
	}, nil
}

// byPhone is the authoritative exact lookup; no fallback to the index.
func (s *SearchService) byPhone(ctx context.Context, pq domain.PhoneQuery, page, limit int) ([]domain.Summary, int64, error) {
	phone := pq.Local
	if phone == "" {
		phone = pq.Digits
	}

	users, total, err := s.users.FindByPhone(ctx, phone, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, err
	}

	items := make([]domain.Summary, 0, len(users))
	for _, u := range users {
		sum := u.Summary()
		if u.Phone != nil {
			sum.Phone = *u.Phone
		}
		items = append(items, sum)
	}
	return items, total, nil
}

// friendsOf returns the caller's friend list. An unknown or absent caller
// yields an empty result, not an error.
func (s *SearchService) friendsOf(ctx context.Context, callerID string) ([]domain.Summary, error) {
	if callerID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(callerID)
	if err != nil {
		return nil, nil
	}

	caller, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(caller.Friends) == 0 {
		return nil, nil
	}

	friends, err := s.users.GetByIDs(ctx, caller.Friends, friendListCap)
	if err != nil {
		return nil, err
	}

	items := make([]domain.Summary, 0, len(friends))
	for _, u := range friends {
		items = append(items, u.Summary())
	}
	return items, nil
}

func (s *SearchService) byNameSubstring(ctx context.Context, term string) ([]domain.Summary, error) {
	users, err := s.users.SearchByName(ctx, strings.ToLower(term), nameMatchCap)
	if err != nil {
		return nil, err
	}

	items := make([]domain.Summary, 0, len(users))
	for _, u := range users {
		items = append(items, u.Summary())
	}
	return items, nil
}

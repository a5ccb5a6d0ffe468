package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metachat/accounts/internal/cache"
	"github.com/metachat/accounts/internal/domain"
	"github.com/metachat/accounts/internal/search"
	"gorm.io/gorm"
)

// FakeCache is an in-memory cache.Cache with TTL bookkeeping so tests can
// assert on expirations without sleeping.
type FakeCache struct {
	mu      sync.Mutex
	values  map[string][]byte
	expires map[string]time.Time
}

func NewFakeCache() *FakeCache {
	return &FakeCache{
		values:  make(map[string][]byte),
		expires: make(map[string]time.Time),
	}
}

func (c *FakeCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	c.expires[key] = time.Now().Add(ttl)
	return nil
}

func (c *FakeCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[key]
	if !ok || time.Now().After(c.expires[key]) {
		return nil, cache.ErrMiss
	}
	return value, nil
}

func (c *FakeCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.values, key)
		delete(c.expires, key)
	}
	return nil
}

// TTL returns the remaining lifetime of key, or false if absent.
func (c *FakeCache) TTL(key string) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp, ok := c.expires[key]
	if !ok {
		return 0, false
	}
	return time.Until(exp), true
}

func (c *FakeCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok
}

// FakeUserRepo is an in-memory repository.UserRepository. Misses surface as
// gorm.ErrRecordNotFound, matching the production repository.
type FakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User

	PhoneLookups int // exact-phone queries served, for routing assertions
	NameLookups  int // name LIKE queries served
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *FakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if user.Email != nil && u.Email != nil && *u.Email == *user.Email {
			return domain.E(domain.KindConflict, "email or phone already in use")
		}
		if user.Phone != nil && u.Phone != nil && *u.Phone == *user.Phone {
			return domain.E(domain.KindConflict, "email or phone already in use")
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *FakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *FakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email != nil && *u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *FakeUserRepo) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Phone != nil && *u.Phone == phone {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *FakeUserRepo) GetByIDs(_ context.Context, ids []string, limit int) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, id := range ids {
		if len(out) >= limit {
			break
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		if u, ok := r.users[parsed]; ok {
			clone := *u
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *FakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *FakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *FakeUserRepo) FindByPhone(_ context.Context, phone string, offset, limit int) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.PhoneLookups++

	var matches []*domain.User
	for _, u := range r.users {
		if u.Phone != nil && *u.Phone == phone {
			clone := *u
			matches = append(matches, &clone)
		}
	}

	total := int64(len(matches))
	if offset >= len(matches) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end], total, nil
}

func (r *FakeUserRepo) SearchByName(_ context.Context, term string, limit int) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.NameLookups++

	var out []*domain.User
	for _, u := range r.users {
		if len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(u.FirstName), term) ||
			strings.Contains(strings.ToLower(u.LastName), term) {
			clone := *u
			out = append(out, &clone)
		}
	}
	return out, nil
}

// RecordedEvent is one publish captured by RecordingPublisher.
type RecordedEvent struct {
	RoutingKey string
	Payload    any
}

type RecordingPublisher struct {
	mu     sync.Mutex
	Events []RecordedEvent
}

func (p *RecordingPublisher) Publish(_ context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, RecordedEvent{RoutingKey: routingKey, Payload: payload})
	return nil
}

func (p *RecordingPublisher) ByKey(routingKey string) []RecordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []RecordedEvent
	for _, e := range p.Events {
		if e.RoutingKey == routingKey {
			out = append(out, e)
		}
	}
	return out
}

// FakeIndex records index writes and queries and serves canned pages, so
// tests can assert which source a query was dispatched to.
type FakeIndex struct {
	mu   sync.Mutex
	Docs map[string]search.Document

	NameQueries  []string
	EmailQueries []string

	// NamePage and EmailPage are returned verbatim from the search calls.
	NamePage  search.Page
	EmailPage search.Page
}

func NewFakeIndex() *FakeIndex {
	return &FakeIndex{Docs: make(map[string]search.Document)}
}

func (i *FakeIndex) Index(_ context.Context, doc search.Document) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Docs[doc.ID] = doc
	return nil
}

func (i *FakeIndex) Delete(_ context.Context, id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.Docs, id)
	return nil
}

func (i *FakeIndex) SearchName(_ context.Context, q string, page, limit int) (search.Page, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.NameQueries = append(i.NameQueries, q)
	return i.NamePage, nil
}

func (i *FakeIndex) SearchEmail(_ context.Context, email string, page, limit int) (search.Page, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.EmailQueries = append(i.EmailQueries, email)
	return i.EmailPage, nil
}

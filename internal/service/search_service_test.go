package service_test

import (
	"context"
	"testing"

	"github.com/metachat/accounts/internal/domain"
	"github.com/metachat/accounts/internal/search"
	"github.com/metachat/accounts/internal/service"
	"github.com/metachat/accounts/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchFixture struct {
	repo   *testutil.FakeUserRepo
	index  *testutil.FakeIndex
	search *service.SearchService
}

func newSearchFixture() *searchFixture {
	f := &searchFixture{
		repo:  testutil.NewFakeUserRepo(),
		index: testutil.NewFakeIndex(),
	}
	f.search = service.NewSearchService(f.repo, f.index, testutil.DiscardLogger())
	return f
}

func TestSearchDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("empty query is invalid", func(t *testing.T) {
		f := newSearchFixture()
		_, err := f.search.Search(ctx, "", "   ", 1, 10)
		require.Error(t, err)
		assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))
	})

	t.Run("phone-like query hits the store only", func(t *testing.T) {
		f := newSearchFixture()
		user, _ := testutil.NewUserBuilder().WithPhone("0901234567").WithName("Jane", "Doe").Build(t, f.repo)

		result, err := f.search.Search(ctx, "", "090 123 4567", 1, 10)
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, user.ID.String(), result.Items[0].ID)
		assert.Equal(t, "0901234567", result.Items[0].Phone)

		assert.Equal(t, 1, f.repo.PhoneLookups)
		assert.Empty(t, f.index.NameQueries)
		assert.Empty(t, f.index.EmailQueries)
	})

	t.Run("international prefix resolves to the local form", func(t *testing.T) {
		f := newSearchFixture()
		testutil.NewUserBuilder().WithPhone("0901234567").Build(t, f.repo)

		result, err := f.search.Search(ctx, "", "+84 90 123 4567", 1, 10)
		require.NoError(t, err)
		assert.Len(t, result.Items, 1)
	})

	t.Run("email query goes to the index exact-email search", func(t *testing.T) {
		f := newSearchFixture()
		f.index.EmailPage = search.Page{
			Items: []domain.Summary{{ID: "u1", Name: "John"}},
			Total: 1,
		}

		result, err := f.search.Search(ctx, "", "John@Example.com", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Total)

		require.Len(t, f.index.EmailQueries, 1)
		assert.Equal(t, "john@example.com", f.index.EmailQueries[0])
		assert.Equal(t, 0, f.repo.PhoneLookups)
	})

	t.Run("plain text goes to the index name search", func(t *testing.T) {
		f := newSearchFixture()
		f.index.NamePage = search.Page{
			Items: []domain.Summary{{ID: "u1", Name: "John"}, {ID: "u2", Name: "Johnny"}},
			Total: 2,
		}

		result, err := f.search.Search(ctx, "", "john", 1, 10)
		require.NoError(t, err)
		assert.Len(t, result.Items, 2)

		require.Len(t, f.index.NameQueries, 1)
		assert.Equal(t, "john", f.index.NameQueries[0])
		assert.Equal(t, 0, f.repo.PhoneLookups)
		assert.Equal(t, 0, f.repo.NameLookups)
	})

	t.Run("at-prefixed term does a store substring match", func(t *testing.T) {
		f := newSearchFixture()
		testutil.NewUserBuilder().WithName("Alice", "Nguyen").Build(t, f.repo)
		testutil.NewUserBuilder().WithName("Bob", "Tran").Build(t, f.repo)

		result, err := f.search.Search(ctx, "", "@ali", 1, 10)
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "Alice Nguyen", result.Items[0].Name)

		assert.Equal(t, 1, f.repo.NameLookups)
		assert.Empty(t, f.index.NameQueries)
	})
}

func TestSearchFriendList(t *testing.T) {
	ctx := context.Background()

	t.Run("bare at returns the caller's friends", func(t *testing.T) {
		f := newSearchFixture()
		a, _ := testutil.NewUserBuilder().WithName("Friend", "A").Build(t, f.repo)
		b, _ := testutil.NewUserBuilder().WithName("Friend", "B").Build(t, f.repo)
		c, _ := testutil.NewUserBuilder().WithName("Friend", "C").Build(t, f.repo)
		caller, _ := testutil.NewUserBuilder().
			WithFriends(a.ID.String(), b.ID.String(), c.ID.String()).
			Build(t, f.repo)

		result, err := f.search.Search(ctx, caller.ID.String(), "@", 1, 10)
		require.NoError(t, err)
		assert.Len(t, result.Items, 3)
		assert.Equal(t, int64(3), result.Total)
	})

	t.Run("anonymous caller gets an empty result", func(t *testing.T) {
		f := newSearchFixture()
		result, err := f.search.Search(ctx, "", "@", 1, 10)
		require.NoError(t, err)
		assert.Empty(t, result.Items)
	})

	t.Run("unknown caller gets an empty result", func(t *testing.T) {
		f := newSearchFixture()
		result, err := f.search.Search(ctx, "5f3c1c2e-8f47-4f09-9a5e-0a4f8f1c2d3e", "@", 1, 10)
		require.NoError(t, err)
		assert.Empty(t, result.Items)
	})

	t.Run("malformed caller id gets an empty result", func(t *testing.T) {
		f := newSearchFixture()
		result, err := f.search.Search(ctx, "not-a-uuid", "@", 1, 10)
		require.NoError(t, err)
		assert.Empty(t, result.Items)
	})
}

func TestSearchPagination(t *testing.T) {
	ctx := context.Background()

	t.Run("hasMore reflects the remaining total", func(t *testing.T) {
		f := newSearchFixture()
		f.index.NamePage = search.Page{Total: 25}

		result, err := f.search.Search(ctx, "", "john", 2, 10)
		require.NoError(t, err)
		assert.True(t, result.HasMore)

		result, err = f.search.Search(ctx, "", "john", 3, 10)
		require.NoError(t, err)
		assert.False(t, result.HasMore)
	})

	t.Run("page and limit are normalized", func(t *testing.T) {
		f := newSearchFixture()

		result, err := f.search.Search(ctx, "", "john", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, 10, result.Limit)
	})
}

package search_test

import (
	"context"
	"testing"

	"github.com/metachat/accounts/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndex(t *testing.T, docs ...search.Document) search.UserIndex {
	t.Helper()

	idx, err := search.NewMemOnly()
	require.NoError(t, err)
	for _, doc := range docs {
		require.NoError(t, idx.Index(context.Background(), doc))
	}
	return idx
}

func TestSearchName(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t,
		search.Document{ID: "u1", Name: "John Smith", Email: "john@example.com", Avatar: "john.png"},
		search.Document{ID: "u2", Name: "Johnny Walker", Email: "johnny@example.com"},
		search.Document{ID: "u3", Name: "Jane Doe", Email: "jane@example.com", Phone: "0901234567"},
	)

	t.Run("exact name ranks first", func(t *testing.T) {
		page, err := idx.SearchName(ctx, "John Smith", 1, 10)
		require.NoError(t, err)
		require.NotEmpty(t, page.Items)
		assert.Equal(t, "u1", page.Items[0].ID)
		assert.Equal(t, "John Smith", page.Items[0].Name)
		assert.Equal(t, "john.png", page.Items[0].Avatar)
	})

	t.Run("fuzzy matching finds near names", func(t *testing.T) {
		page, err := idx.SearchName(ctx, "john", 1, 10)
		require.NoError(t, err)
		require.NotEmpty(t, page.Items)
		// The plain token match on "John Smith" outweighs Johnny's fuzzy hit.
		assert.Equal(t, "u1", page.Items[0].ID)

		ids := make([]string, 0, len(page.Items))
		for _, item := range page.Items {
			ids = append(ids, item.ID)
		}
		assert.Contains(t, ids, "u2")
	})

	t.Run("stored fields survive the round trip", func(t *testing.T) {
		page, err := idx.SearchName(ctx, "Jane Doe", 1, 10)
		require.NoError(t, err)
		require.NotEmpty(t, page.Items)
		assert.Equal(t, "0901234567", page.Items[0].Phone)
	})
}

func TestSearchEmail(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t,
		search.Document{ID: "u1", Name: "John Smith", Email: "john@example.com"},
		search.Document{ID: "u2", Name: "Johnny Walker", Email: "johnny@example.com"},
	)

	page, err := idx.SearchEmail(ctx, "john@example.com", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "u1", page.Items[0].ID)

	// The whole address is a single term; no partial matches.
	page, err = idx.SearchEmail(ctx, "jane@example.com", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(0), page.Total)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t, search.Document{ID: "u1", Name: "John Smith", Email: "john@example.com"})

	require.NoError(t, idx.Delete(ctx, "u1"))

	page, err := idx.SearchEmail(ctx, "john@example.com", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestSearchPaging(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t,
		search.Document{ID: "p1", Name: "Pat Lee"},
		search.Document{ID: "p2", Name: "Pat Lee"},
		search.Document{ID: "p3", Name: "Pat Lee"},
	)

	page, err := idx.SearchName(ctx, "Pat Lee", 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.Total)

	page, err = idx.SearchName(ctx, "Pat Lee", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

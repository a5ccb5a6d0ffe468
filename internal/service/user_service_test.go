package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/metachat/accounts/internal/domain"
	"github.com/metachat/accounts/internal/service"
	"github.com/metachat/accounts/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type userFixture struct {
	repo  *testutil.FakeUserRepo
	index *testutil.FakeIndex
	users *service.UserService
}

func newUserFixture() *userFixture {
	f := &userFixture{
		repo:  testutil.NewFakeUserRepo(),
		index: testutil.NewFakeIndex(),
	}
	f.users = service.NewUserService(f.repo, f.index, nil, testutil.DiscardLogger())
	return f
}

func strp(s string) *string { return &s }

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()
	user, _ := testutil.NewUserBuilder().WithEmail("get@example.com").Build(t, f.repo)

	got, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = f.users.GetByID(ctx, uuid.New())
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("changes fields and re-derives the name", func(t *testing.T) {
		f := newUserFixture()
		user, _ := testutil.NewUserBuilder().WithEmail("u@example.com").WithName("Old", "Name").Build(t, f.repo)

		updated, err := f.users.Update(ctx, user.ID, service.UpdateInput{
			FirstName: strp("New"),
			LastName:  strp("Person"),
			Gender:    strp("female"),
		})
		require.NoError(t, err)
		assert.Equal(t, "New Person", updated.Name)
		assert.Equal(t, domain.GenderFemale, updated.Gender)

		doc, ok := f.index.Docs[user.ID.String()]
		require.True(t, ok, "update should reindex the user")
		assert.Equal(t, "New Person", doc.Name)
	})

	t.Run("rejects an email already taken", func(t *testing.T) {
		f := newUserFixture()
		testutil.NewUserBuilder().WithEmail("taken@example.com").Build(t, f.repo)
		user, _ := testutil.NewUserBuilder().WithEmail("mine@example.com").Build(t, f.repo)

		_, err := f.users.Update(ctx, user.ID, service.UpdateInput{Email: strp("Taken@Example.com")})
		require.Error(t, err)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	})

	t.Run("setting the same email again is fine", func(t *testing.T) {
		f := newUserFixture()
		user, _ := testutil.NewUserBuilder().WithEmail("same@example.com").Build(t, f.repo)

		updated, err := f.users.Update(ctx, user.ID, service.UpdateInput{Email: strp("Same@Example.com")})
		require.NoError(t, err)
		require.NotNil(t, updated.Email)
		assert.Equal(t, "same@example.com", *updated.Email)
	})

	t.Run("cannot clear the last identifier", func(t *testing.T) {
		f := newUserFixture()
		user, _ := testutil.NewUserBuilder().WithEmail("only@example.com").Build(t, f.repo)

		_, err := f.users.Update(ctx, user.ID, service.UpdateInput{Email: strp("")})
		require.Error(t, err)
		assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))
	})

	t.Run("password change rehashes", func(t *testing.T) {
		f := newUserFixture()
		user, _ := testutil.NewUserBuilder().WithEmail("pw@example.com").Build(t, f.repo)

		_, err := f.users.Update(ctx, user.ID, service.UpdateInput{Password: strp("brand-new")})
		require.NoError(t, err)

		stored, err := f.repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("brand-new")))
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		f := newUserFixture()
		_, err := f.users.Update(ctx, uuid.New(), service.UpdateInput{FirstName: strp("x")})
		require.Error(t, err)
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	})
}

func TestUploadAvatarUnconfigured(t *testing.T) {
	f := newUserFixture()
	user, _ := testutil.NewUserBuilder().WithEmail("a@example.com").Build(t, f.repo)

	_, err := f.users.UploadAvatar(context.Background(), user.ID, "a.png", strings.NewReader("img"), 3, "image/png")
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
}

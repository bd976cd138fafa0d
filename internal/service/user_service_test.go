package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/cache"
	"github.com/MorseWayne/content_shop/internal/domain"
	"github.com/MorseWayne/content_shop/internal/mq"
)

type userFixture struct {
	svc    UserService
	users  *mockUserRepository
	tokens TokenService
	cache  *cache.MemoryCache
	events *recordingPublisher
}

func newUserFixture() *userFixture {
	f := &userFixture{
		users:  newMockUserRepository(),
		tokens: newTestTokenService(nil),
		cache:  cache.NewMemoryCache(),
		events: &recordingPublisher{},
	}
	f.svc = NewUserService(UserServiceDeps{
		Users:       f.users,
		Hasher:      newTestHasher(),
		Tokens:      f.tokens,
		Cache:       f.cache,
		Events:      f.events,
		LivenessTTL: time.Minute,
		Logger:      zap.NewNop(),
	})
	return f
}

func registerReq(username, email string) *domain.RegisterRequest {
	return &domain.RegisterRequest{Username: username, Email: email, Password: "password123"}
}

func TestUserService_Register(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	user, err := f.svc.Register(ctx, &domain.RegisterRequest{
		Username: "  alice ",
		Email:    " Alice@Example.COM ",
		Password: "password123",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, domain.DefaultUserRole, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.Equal(t, []string{mq.EventUserRegistered}, f.events.types())
}

func TestUserService_RegisterDuplicates(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerReq("alice", "alice@example.com"))
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, registerReq("alice", "other@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = f.svc.Register(ctx, registerReq("bob", "ALICE@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

// racingUserRepository 预检查看不到并发插入的记录，由唯一键兜底
type racingUserRepository struct {
	*mockUserRepository
}

func (r racingUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, nil
}

func TestUserService_RegisterRaceFallsBackToUniqueKey(t *testing.T) {
	users := newMockUserRepository()
	svc := NewUserService(UserServiceDeps{
		Users:  racingUserRepository{users},
		Hasher: newTestHasher(),
		Tokens: newTestTokenService(nil),
	})
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq("alice", "a1@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerReq("alice", "a2@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestUserService_Login(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, registerReq("alice", "alice@example.com"))
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Login(ctx, &domain.LoginRequest{Username: "alice", Password: "nope"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.svc.Login(ctx, &domain.LoginRequest{Username: "mallory", Password: "password123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("success", func(t *testing.T) {
		resp, err := f.svc.Login(ctx, &domain.LoginRequest{Username: "alice", Password: "password123"})
		require.NoError(t, err)
		assert.Equal(t, "bearer", resp.TokenType)
		assert.Equal(t, int64(1800), resp.ExpiresIn)

		identity, err := f.tokens.Validate(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, identity.UserID)
		assert.Equal(t, "alice", identity.Username)
	})

	t.Run("login by email", func(t *testing.T) {
		_, err := f.svc.Login(ctx, &domain.LoginRequest{Username: "ALICE@example.com", Password: "password123"})
		assert.NoError(t, err)
	})

	t.Run("inactive user", func(t *testing.T) {
		require.NoError(t, f.svc.Deactivate(ctx, registered.Identity()))
		_, err := f.svc.Login(ctx, &domain.LoginRequest{Username: "alice", Password: "password123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	alice, err := f.svc.Register(ctx, registerReq("alice", "alice@example.com"))
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, registerReq("bob", "bob@example.com"))
	require.NoError(t, err)

	t.Run("keeps own username and email", func(t *testing.T) {
		role := "editor"
		u, err := f.svc.UpdateProfile(ctx, alice.Identity(), &domain.UpdateProfileRequest{
			Username: "alice", Email: "alice@example.com", FirstName: "Alice", Role: &role,
		})
		require.NoError(t, err)
		assert.Equal(t, "Alice", u.FirstName)
		assert.Equal(t, "editor", u.Role)
	})

	t.Run("role unchanged when omitted", func(t *testing.T) {
		u, err := f.svc.UpdateProfile(ctx, alice.Identity(), &domain.UpdateProfileRequest{
			Username: "alice", Email: "alice@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "editor", u.Role)
	})

	t.Run("duplicate of another user", func(t *testing.T) {
		_, err := f.svc.UpdateProfile(ctx, alice.Identity(), &domain.UpdateProfileRequest{
			Username: "bob", Email: "alice@example.com",
		})
		assert.ErrorIs(t, err, ErrDuplicateUsername)

		_, err = f.svc.UpdateProfile(ctx, alice.Identity(), &domain.UpdateProfileRequest{
			Username: "alice", Email: "bob@example.com",
		})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := f.svc.UpdateProfile(ctx, &domain.Identity{UserID: 999, Username: "ghost"}, &domain.UpdateProfileRequest{
			Username: "ghost", Email: "ghost@example.com",
		})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserService_ChangePassword(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	alice, err := f.svc.Register(ctx, registerReq("alice", "alice@example.com"))
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, alice.Identity(), &domain.ChangePasswordRequest{Password: "wrong", NewPassword: "newpass123"})
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	err = f.svc.ChangePassword(ctx, alice.Identity(), &domain.ChangePasswordRequest{Password: "password123", NewPassword: "newpass123"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, &domain.LoginRequest{Username: "alice", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, &domain.LoginRequest{Username: "alice", Password: "newpass123"})
	assert.NoError(t, err)
}

func TestUserService_IsActiveCachedAndInvalidated(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	alice, err := f.svc.Register(ctx, registerReq("alice", "alice@example.com"))
	require.NoError(t, err)

	active, err := f.svc.IsActive(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, active)

	gets := f.users.gets
	_, err = f.svc.IsActive(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, gets, f.users.gets, "second lookup served from cache")

	require.NoError(t, f.svc.Deactivate(ctx, alice.Identity()))

	active, err = f.svc.IsActive(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, active, "deactivation evicts cached liveness")

	active, err = f.svc.IsActive(ctx, 4242)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestUserService_UpdateProfilePicture(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	alice, err := f.svc.Register(ctx, registerReq("alice", "alice@example.com"))
	require.NoError(t, err)

	u, previous, err := f.svc.UpdateProfilePicture(ctx, alice.Identity(), "/uploads/user_1_x.png")
	require.NoError(t, err)
	require.NotNil(t, u.ProfilePicture)
	assert.Equal(t, "/uploads/user_1_x.png", *u.ProfilePicture)
	assert.Empty(t, previous)

	_, previous, err = f.svc.UpdateProfilePicture(ctx, alice.Identity(), "/uploads/user_1_y.png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/user_1_x.png", previous)

	_, _, err = f.svc.UpdateProfilePicture(ctx, nil, "/uploads/x.png")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

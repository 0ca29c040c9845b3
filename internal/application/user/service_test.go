package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/qr-login-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	args := m.Called(ctx, userID, updates)
	return args.Error(0)
}

type mockAvatarStore struct {
	mock.Mock
}

func (m *mockAvatarStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	args := m.Called(ctx, key, r, contentType)
	return args.Error(0)
}

func (m *mockAvatarStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

var errNotFound = fmt.Errorf("user not found: %w", domain.ErrNotFound)

func TestRegister_HashesPassword(t *testing.T) {
	repo := new(mockUserStore)
	svc := NewService(ServiceDeps{UserRepo: repo})

	repo.On("GetByUsername", mock.Anything, "alice").Return(nil, errNotFound)
	repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, errNotFound)
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	u, err := svc.Register(context.Background(), domain.CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, u.UserID)
	assert.True(t, u.Enable)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret-pass")))
	repo.AssertExpectations(t)
}

func TestRegister_UsernameTaken(t *testing.T) {
	repo := new(mockUserStore)
	svc := NewService(ServiceDeps{UserRepo: repo})

	repo.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{UserID: "u1"}, nil)

	_, err := svc.Register(context.Background(), domain.CreateUserRequest{
		Username: "alice",
		Email:    "new@example.com",
		Password: "s3cret-pass",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_EmailTaken(t *testing.T) {
	repo := new(mockUserStore)
	svc := NewService(ServiceDeps{UserRepo: repo})

	repo.On("GetByUsername", mock.Anything, "newname").Return(nil, errNotFound)
	repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{UserID: "u1"}, nil)

	_, err := svc.Register(context.Background(), domain.CreateUserRequest{
		Username: "newname",
		Email:    "alice@example.com",
		Password: "s3cret-pass",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestGet_FillsPresignedAvatarURL(t *testing.T) {
	repo := new(mockUserStore)
	avatars := new(mockAvatarStore)
	svc := NewService(ServiceDeps{UserRepo: repo, AvatarStore: avatars})

	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", AvatarKey: "avatars/u1/a.png"}, nil)
	avatars.On("PresignedURL", mock.Anything, "avatars/u1/a.png", avatarURLTTL).Return("https://bucket/a.png?sig=x", nil)

	u, err := svc.Get(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, "https://bucket/a.png?sig=x", u.AvatarURL)
}

func TestGet_PresignFailureDegrades(t *testing.T) {
	repo := new(mockUserStore)
	avatars := new(mockAvatarStore)
	svc := NewService(ServiceDeps{UserRepo: repo, AvatarStore: avatars})

	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", AvatarKey: "avatars/u1/a.png"}, nil)
	avatars.On("PresignedURL", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("s3 down"))

	u, err := svc.Get(context.Background(), "u1")

	require.NoError(t, err)
	assert.Empty(t, u.AvatarURL)
}

func TestGet_SoftDeleted(t *testing.T) {
	repo := new(mockUserStore)
	svc := NewService(ServiceDeps{UserRepo: repo})

	deleted := time.Now().UTC()
	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", DeletedAt: &deleted}, nil)

	_, err := svc.Get(context.Background(), "u1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUploadAvatar_RejectsUnknownType(t *testing.T) {
	repo := new(mockUserStore)
	avatars := new(mockAvatarStore)
	svc := NewService(ServiceDeps{UserRepo: repo, AvatarStore: avatars})

	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	_, err := svc.UploadAvatar(context.Background(), "u1", "payload.exe", strings.NewReader("x"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	avatars.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadAvatar_StoresAndPresigns(t *testing.T) {
	repo := new(mockUserStore)
	avatars := new(mockAvatarStore)
	svc := NewService(ServiceDeps{UserRepo: repo, AvatarStore: avatars})

	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)
	avatars.On("Upload", mock.Anything, "avatars/u1/pic.png", mock.Anything, "image/png").Return(nil)
	repo.On("Update", mock.Anything, "u1", map[string]interface{}{"avatar_key": "avatars/u1/pic.png"}).Return(nil)
	avatars.On("PresignedURL", mock.Anything, "avatars/u1/pic.png", avatarURLTTL).Return("https://bucket/pic.png?sig=x", nil)

	u, err := svc.UploadAvatar(context.Background(), "u1", "pic.png", strings.NewReader("png-bytes"))

	require.NoError(t, err)
	assert.Equal(t, "avatars/u1/pic.png", u.AvatarKey)
	assert.Equal(t, "https://bucket/pic.png?sig=x", u.AvatarURL)
	repo.AssertExpectations(t)
	avatars.AssertExpectations(t)
}

func TestUploadAvatar_S3Failure(t *testing.T) {
	repo := new(mockUserStore)
	avatars := new(mockAvatarStore)
	svc := NewService(ServiceDeps{UserRepo: repo, AvatarStore: avatars})

	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)
	avatars.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("s3 down"))

	_, err := svc.UploadAvatar(context.Background(), "u1", "pic.png", strings.NewReader("x"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

package user

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/qr-login-api/internal/domain"
	s3infra "github.com/qr-login-api/internal/infrastructure/s3"
	"github.com/qr-login-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// avatarURLTTL bounds how long a presigned avatar link stays valid. Poll
// responses are re-fetched every few seconds anyway.
const avatarURLTTL = 15 * time.Minute

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	// Get returns the user with a presigned AvatarURL filled in. This is the
	// User Directory the handshake resolver consults.
	Get(ctx context.Context, userID string) (*domain.User, error)
	UploadAvatar(ctx context.Context, userID, filename string, r io.Reader) (*domain.User, error)
}

type userStore interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type avatarStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type ServiceDeps struct {
	UserRepo    userStore
	AvatarStore avatarStore
}

type service struct {
	repo    userStore
	avatars avatarStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.UserRepo, avatars: deps.AvatarStore}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username already taken: %w", domain.ErrConflict)
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.DeletedAt != nil {
		return nil, fmt.Errorf("user deleted: %w", domain.ErrNotFound)
	}
	s.fillAvatarURL(ctx, u)
	return u, nil
}

func (s *service) UploadAvatar(ctx context.Context, userID, filename string, r io.Reader) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	contentType := s3infra.ContentTypeForAvatar(filename)
	if contentType == "application/octet-stream" {
		return nil, fmt.Errorf("unsupported avatar type: %w", domain.ErrBadRequest)
	}
	key := fmt.Sprintf("avatars/%s/%s", userID, filename)
	if err := s.avatars.Upload(ctx, key, r, contentType); err != nil {
		slog.Warn("avatar upload failed", "user_id", userID, "err", err)
		return nil, fmt.Errorf("upload avatar: %w", domain.ErrUnavailable)
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{"avatar_key": key}); err != nil {
		return nil, err
	}
	u.AvatarKey = key
	s.fillAvatarURL(ctx, u)
	return u, nil
}

// fillAvatarURL mints a presigned URL for the stored avatar key. A presign
// failure degrades to a profile without an avatar.
func (s *service) fillAvatarURL(ctx context.Context, u *domain.User) {
	if u.AvatarKey == "" || s.avatars == nil {
		return
	}
	url, err := s.avatars.PresignedURL(ctx, u.AvatarKey, avatarURLTTL)
	if err != nil {
		slog.Warn("failed to presign avatar URL", "user_id", u.UserID, "err", err)
		return
	}
	u.AvatarURL = url
}

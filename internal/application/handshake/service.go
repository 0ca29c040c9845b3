package handshake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/qr-login-api/internal/domain"
	jwtinfra "github.com/qr-login-api/internal/infrastructure/jwt"
	"github.com/qr-login-api/internal/infrastructure/smtp"
	"github.com/qr-login-api/internal/infrastructure/sns"
)

// errNotFoundOrExpired is the single signal for both an unknown code and an
// expired one. Keeping one value guarantees the two cases are
// indistinguishable to callers, so codes cannot be enumerated.
var errNotFoundOrExpired = fmt.Errorf("handshake not found or expired: %w", domain.ErrNotFound)

// StartResult is what the initiator needs to render a QR code and begin
// polling. The poll fields are client hints; the TTL is the hard cutoff no
// matter how many attempts the client makes.
type StartResult struct {
	Code                string `json:"code"`
	ExpiresAt           int64  `json:"expires_at"`
	ScanURL             string `json:"scan_url"`
	PollIntervalSeconds int    `json:"poll_interval_seconds"`
	MaxAttempts         int    `json:"max_attempts"`
}

// Resolution is the poll answer. User is set iff Status is authenticated.
type Resolution struct {
	Status string          `json:"status"`
	User   *domain.Profile `json:"user,omitempty"`
}

type Service interface {
	// Start issues a fresh pending handshake.
	Start(ctx context.Context) (*StartResult, error)
	// Confirm redeems a code on behalf of the identity asserted by the
	// bearer credential. It completes the initiator's handshake; it does not
	// log the confirmer in anywhere.
	Confirm(ctx context.Context, code, credential string) (*domain.Profile, error)
	// Resolve answers "has this handshake been confirmed yet?". Read-only,
	// idempotent, safe to call concurrently any number of times.
	Resolve(ctx context.Context, code string) (*Resolution, error)
}

type handshakeStore interface {
	Create(ctx context.Context, ttl time.Duration) (*domain.HandshakeSession, error)
	Get(ctx context.Context, code string) (*domain.HandshakeSession, error)
	TryBind(ctx context.Context, code, userID string, now time.Time) error
	DeleteExpired(ctx context.Context, code string, now time.Time) error
}

type identityVerifier interface {
	Verify(token string) (*jwtinfra.Claims, error)
}

type userDirectory interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type ServiceDeps struct {
	HandshakeRepo handshakeStore
	UserDirectory userDirectory
	Verifier      identityVerifier
	Mailer        smtp.Mailer     // optional, login alerts
	SMSSender     sns.SMSSender   // optional, login alerts
	TTL           time.Duration
	ScanURLBase   string
	PollInterval  int
	MaxAttempts   int
}

type service struct {
	repo         handshakeStore
	directory    userDirectory
	verifier     identityVerifier
	mailer       smtp.Mailer
	smsSender    sns.SMSSender
	ttl          time.Duration
	scanURLBase  string
	pollInterval int
	maxAttempts  int
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:         deps.HandshakeRepo,
		directory:    deps.UserDirectory,
		verifier:     deps.Verifier,
		mailer:       deps.Mailer,
		smsSender:    deps.SMSSender,
		ttl:          deps.TTL,
		scanURLBase:  deps.ScanURLBase,
		pollInterval: deps.PollInterval,
		maxAttempts:  deps.MaxAttempts,
	}
}

func (s *service) Start(ctx context.Context) (*StartResult, error) {
	h, err := s.repo.Create(ctx, s.ttl)
	if err != nil {
		slog.Warn("failed to create handshake", "err", err)
		return nil, fmt.Errorf("create handshake: %w", domain.ErrUnavailable)
	}
	return &StartResult{
		Code:                h.Code,
		ExpiresAt:           h.ExpiresAt,
		ScanURL:             fmt.Sprintf("%s/qr-auth?code=%s", s.scanURLBase, h.Code),
		PollIntervalSeconds: s.pollInterval,
		MaxAttempts:         s.maxAttempts,
	}, nil
}

func (s *service) Confirm(ctx context.Context, code, credential string) (*domain.Profile, error) {
	// Credential verification runs strictly before the bind attempt, so a
	// bad credential never burns the handshake's single confirmation slot.
	claims, err := s.verifier.Verify(credential)
	if err != nil {
		return nil, fmt.Errorf("invalid credential: %w", domain.ErrUnauthorized)
	}
	u, err := s.directory.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown identity: %w", domain.ErrUnauthorized)
		}
		slog.Warn("directory lookup failed during confirm", "user_id", claims.UserID, "err", err)
		return nil, fmt.Errorf("lookup identity: %w", domain.ErrUnavailable)
	}
	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}

	// One "now" per operation; the same instant feeds the store's expiry
	// condition so check and bind cannot drift apart.
	now := time.Now().UTC()
	if err := s.repo.TryBind(ctx, code, u.UserID, now); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return nil, errNotFoundOrExpired
		case errors.Is(err, domain.ErrConflict):
			return nil, fmt.Errorf("handshake already confirmed: %w", domain.ErrConflict)
		default:
			slog.Warn("bind failed", "err", err)
			return nil, fmt.Errorf("bind handshake: %w", domain.ErrUnavailable)
		}
	}

	s.sendLoginAlerts(ctx, u, now)
	return u.PublicProfile(), nil
}

func (s *service) Resolve(ctx context.Context, code string) (*Resolution, error) {
	h, err := s.repo.Get(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errNotFoundOrExpired
		}
		slog.Warn("failed to load handshake", "err", err)
		return nil, fmt.Errorf("load handshake: %w", domain.ErrUnavailable)
	}
	now := time.Now().UTC()
	if h.ExpiredAt(now) {
		if err := s.repo.DeleteExpired(ctx, code, now); err != nil {
			slog.Warn("lazy eviction failed", "err", err)
		}
		return nil, errNotFoundOrExpired
	}
	if h.Status == domain.HandshakeStatusPending {
		return &Resolution{Status: domain.HandshakeStatusPending}, nil
	}
	u, err := s.directory.Get(ctx, h.UserID)
	if err != nil {
		// Transient by contract: the handshake IS confirmed, the caller
		// should retry rather than restart.
		slog.Warn("directory lookup failed during resolve", "user_id", h.UserID, "err", err)
		return nil, fmt.Errorf("lookup profile: %w", domain.ErrUnavailable)
	}
	return &Resolution{Status: domain.HandshakeStatusAuthenticated, User: u.PublicProfile()}, nil
}

// sendLoginAlerts notifies the account owner that their identity was just
// used to sign in on another device. Best-effort on both channels.
func (s *service) sendLoginAlerts(ctx context.Context, u *domain.User, at time.Time) {
	const subject = "New sign-in to your account"
	body := fmt.Sprintf("Your account was used to sign in on a new device at %s. If this wasn't you, change your password.", at.Format(time.RFC1123))
	if s.mailer != nil && u.Email != "" {
		if err := s.mailer.SendEmail(u.Email, subject, body); err != nil {
			slog.Warn("failed to send login alert email", "user_id", u.UserID, "err", err)
		}
	}
	if s.smsSender != nil && u.Phone != nil {
		if err := s.smsSender.SendSMS(ctx, *u.Phone, body); err != nil {
			slog.Warn("failed to send login alert SMS", "user_id", u.UserID, "err", err)
		}
	}
}

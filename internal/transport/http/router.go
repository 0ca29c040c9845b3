package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/qr-login-api/internal/application/handshake"
	"github.com/qr-login-api/internal/application/session"
	"github.com/qr-login-api/internal/application/user"
	"github.com/qr-login-api/internal/config"
	"github.com/qr-login-api/internal/transport/http/handler"
	appmiddleware "github.com/qr-login-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	// On confirm this doubles as the brute-force control on handshake codes.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:    deps.UserRepo,
		AvatarStore: deps.AvatarStore,
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		UserRepo:        deps.UserRepo,
		SessionRepo:     deps.SessionRepo,
		JWTProvider:     deps.JWTProvider,
		RefreshTokenDur: cfg.RefreshTokenDur,
	})
	handshakeSvc := handshake.NewService(handshake.ServiceDeps{
		HandshakeRepo: deps.HandshakeRepo,
		UserDirectory: userSvc,
		Verifier:      deps.JWTProvider,
		Mailer:        deps.Mailer,
		SMSSender:     deps.SMSSender,
		TTL:           cfg.HandshakeTTL,
		ScanURLBase:   cfg.FrontendURL,
		PollInterval:  cfg.PollIntervalSeconds,
		MaxAttempts:   cfg.PollMaxAttempts,
	})

	healthH := handler.NewHealthHandler()
	handshakeH := handler.NewHandshakeHandler(handshakeSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	userH := handler.NewUserHandler(userSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/handshakes", handshakeH.Start)
		r.Get("/handshakes/{code}", handshakeH.Poll)
		// Confirm validates its own bearer credential inside the service, so
		// the lifecycle controller owns the InvalidCredential outcome.
		r.With(sensitiveRL.Limit).Post("/handshakes/{code}/confirm", handshakeH.Confirm)

		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)
			r.Get("/users/me", userH.Me)
			r.Post("/users/me/avatar", userH.UploadAvatar)
		})
	})

	return r
}

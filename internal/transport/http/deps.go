package http

import (
	"github.com/qr-login-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/qr-login-api/internal/infrastructure/jwt"
	s3infra "github.com/qr-login-api/internal/infrastructure/s3"
	"github.com/qr-login-api/internal/infrastructure/smtp"
	"github.com/qr-login-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo      *dynamo.UserRepo
	SessionRepo   *dynamo.SessionRepo
	HandshakeRepo *dynamo.HandshakeRepo
	AvatarStore   *s3infra.Store
	Mailer        smtp.Mailer
	SMSSender     sns.SMSSender
	JWTProvider   *jwtinfra.Provider
}

package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable           = "enable"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
	fieldHandshakeStatus  = "handshake_status"
	fieldUserID           = "user_id"
	fieldAvatarKey        = "avatar_key"
	fieldPasswordHash     = "password_hash"
)

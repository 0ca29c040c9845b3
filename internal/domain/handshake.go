package domain

import "time"

// Handshake statuses. Expiry is never stored: a record past ExpiresAt is
// treated as gone no matter what HandshakeStatus says.
const (
	HandshakeStatusPending       = "pending"
	HandshakeStatusAuthenticated = "authenticated"
)

// HandshakeSession is one cross-device login handshake, keyed by its opaque
// code. The attribute is named handshake_status because STATUS is a DynamoDB
// reserved word.
// ExpiresAt is a Unix timestamp used as the DynamoDB TTL attribute.
type HandshakeSession struct {
	Code      string    `json:"code" dynamodbav:"code"`
	Status    string    `json:"status" dynamodbav:"handshake_status"`
	UserID    string    `json:"user_id,omitempty" dynamodbav:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

// ExpiredAt reports whether the handshake is past its deadline at the given
// instant. The boundary instant itself counts as expired.
func (h *HandshakeSession) ExpiredAt(now time.Time) bool {
	return now.Unix() >= h.ExpiresAt
}

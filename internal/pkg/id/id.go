package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs sort lexicographically by creation
// time and are safe as DynamoDB partition keys. Handshake codes do NOT use
// this: they come from internal/pkg/code, which carries more entropy and no
// timestamp prefix.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

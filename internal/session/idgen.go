package session

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// newSessionID returns a fresh id matching ^[a-f0-9]{16}$: the first 8
// bytes of a random UUIDv4, hex-encoded.
func newSessionID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:8])
}

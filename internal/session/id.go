package session

import (
	"crypto/rand"

	"github.com/mr-tron/base58"
)

// NewID returns a random 16-byte session identifier encoded in base58.
// Session IDs tag every in-flight subscription so stale events can be
// told apart from the active session's events.
func NewID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("session: crypto/rand unavailable: " + err.Error())
	}
	return base58.Encode(b)
}

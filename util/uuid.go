package util

import (
	"crypto/rand"

	"github.com/s3db-io/s3db/internal/uuid"
)

// NewUUIDv4 returns a random (v4) UUID string, the id generator a resource
// opts into via record.WithIDGenerator when it needs RFC 4122 ids instead
// of the default nanoid.
func NewUUIDv4() (string, error) {
	return uuid.New(rand.Reader)
}

package syncer

import "github.com/google/uuid"

// IDGenerator mints identifiers for new guards, users, and report
// templates. Implemented by UUIDv7Generator (production) and
// testutil.FixedGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers. The
// embedded timestamp makes rows created together sort together, which
// helps when reading the store by hand.
//
// Thread-safety: stateless, safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7 string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

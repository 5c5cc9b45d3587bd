package tracker

import "github.com/google/uuid"

// Generator mints durable identities.
// Implemented by UUIDv4Generator (production) and testutil.FixedGenerator (tests).
type Generator interface {
	Generate() string
}

// UUIDv4Generator mints random version 4 UUIDs.
//
// Thread-safety: UUIDv4Generator is stateless and safe for concurrent use.
type UUIDv4Generator struct{}

// Generate returns a new hyphenated lowercase UUIDv4.
func (UUIDv4Generator) Generate() string {
	return uuid.NewString()
}

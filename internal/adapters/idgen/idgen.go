package idgen

import "github.com/google/uuid"

// Generator creates UUIDv4 identifiers.
type Generator struct{}

// NewID returns a UUIDv4 string.
func (Generator) NewID() string {
	return uuid.NewString()
}

// SID returns a GENA subscription identifier.
func (g Generator) SID() string {
	return "uuid:" + g.NewID()
}

package store

import "context"

// Store persists the reference schema of the game: players, the card
// catalogue and the party tables. The live engine keeps rooms in
// memory; the schema is dropped and recreated on every boot.
type Store interface {
	// EnsureSchema drops and recreates all tables.
	EnsureSchema(ctx context.Context) error
	// SeedReferenceData inserts the default player and the 52-card
	// catalogue.
	SeedReferenceData(ctx context.Context) error
	Close() error
}

package store

import (
	"fmt"
	"os"
	"strings"
)

const (
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"
	ModeOff      = "off"
)

func modeFromEnv() string {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_MODE")))
	switch raw {
	case "", ModeSQLite:
		return ModeSQLite
	case ModePostgres, "pg", "postgresql":
		return ModePostgres
	case ModeOff, "none":
		return ModeOff
	default:
		return raw
	}
}

// NewFromEnv builds the store named by STORE_MODE. Mode "off" returns
// a nil store; callers must treat that as persistence disabled.
func NewFromEnv() (Store, string, error) {
	mode := modeFromEnv()

	switch mode {
	case ModeSQLite:
		s, err := NewSQLiteFromEnv()
		if err != nil {
			return nil, mode, err
		}
		return s, mode, nil
	case ModePostgres:
		s, err := NewPostgresFromEnv()
		if err != nil {
			return nil, mode, err
		}
		return s, mode, nil
	case ModeOff:
		return nil, mode, nil
	default:
		return nil, mode, fmt.Errorf("invalid STORE_MODE %q (supported: %s, %s, %s)", mode, ModeSQLite, ModePostgres, ModeOff)
	}
}

package repository

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lalith-99/auraloom/internal/models"
	"golang.org/x/crypto/blake2b"
)

// SchemaVersion is the layout version written into every envelope. Bump it
// whenever models.State changes shape incompatibly.
const SchemaVersion = 1

var (
	ErrUnsupportedVersion = errors.New("unsupported state schema version")
	ErrChecksumMismatch   = errors.New("state checksum mismatch")
)

// Envelope is the durable record layout shared by all backends.
type Envelope struct {
	Version  int             `json:"version"`
	SavedAt  time.Time       `json:"saved_at"`
	Checksum string          `json:"checksum"`
	State    json.RawMessage `json:"state"`
}

// Encode wraps state in a versioned, checksummed envelope.
func Encode(state models.State, savedAt time.Time) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	env := Envelope{
		Version:  SchemaVersion,
		SavedAt:  savedAt.UTC(),
		Checksum: checksum(raw),
		State:    raw,
	}
	out, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return out, nil
}

// Decode validates an envelope produced by Encode and returns its state.
func Decode(payload []byte) (*models.State, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	if checksum(env.State) != env.Checksum {
		return nil, ErrChecksumMismatch
	}
	var state models.State
	if err := json.Unmarshal(env.State, &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &state, nil
}

func checksum(raw []byte) string {
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

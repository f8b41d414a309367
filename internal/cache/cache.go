// Package cache keeps tally reports so that re-running an unchanged election
// skips the tally. Only derived reports are stored, never ballots.
package cache

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/zeebo/blake3"

	"github.com/duke1swd/Voting/internal/codec"
	"github.com/duke1swd/Voting/internal/model"
)

// Cache defines a byte-level cache layer
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyPrefix changes whenever the report layout changes
const keyPrefix = "ranked:v1:"

// Key derives the cache key of a tally from the vote matrix and the tally
// options. Both are CBOR encoded deterministically, so equal inputs always
// hash to the same key.
func Key(m *model.VoteMatrix, cfg model.TallyConfig) (string, error) {
	matrix, err := codec.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode matrix: %w", err)
	}
	options, err := codec.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode tally config: %w", err)
	}

	hasher := blake3.New()
	hasher.Write(matrix)
	hasher.Write(options)
	return keyPrefix + hex.EncodeToString(hasher.Sum(nil)), nil
}

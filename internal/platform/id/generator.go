package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Generator creates opaque identifiers for discovery runs.
type Generator interface {
	NewID() (string, error)
}

type RandomGenerator struct {
	prefix string
	size   int
}

// NewRandomGenerator returns hex ids of size random bytes, optionally
// prefixed as "<prefix>_<hex>".
func NewRandomGenerator(prefix string, size int) *RandomGenerator {
	if size <= 0 {
		size = 8
	}
	return &RandomGenerator{
		prefix: strings.TrimSpace(prefix),
		size:   size,
	}
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, g.size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	encoded := hex.EncodeToString(buf)
	if g.prefix == "" {
		return encoded, nil
	}
	return g.prefix + "_" + encoded, nil
}

package flappy

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// record has GameState's fields but none of its methods, so msgpack encodes
// the fields instead of dispatching back to MarshalBinary.
type record GameState

// MarshalBinary encodes the record for storage.
func (g GameState) MarshalBinary() ([]byte, error) {
	data, err := msgpack.Marshal((*record)(&g))
	if err != nil {
		return nil, fmt.Errorf("flappy: cannot encode state: %w", err)
	}
	return data, nil
}

// UnmarshalBinary decodes a record produced by MarshalBinary.
func (g *GameState) UnmarshalBinary(data []byte) error {
	var decoded GameState
	if err := msgpack.Unmarshal(data, (*record)(&decoded)); err != nil {
		return fmt.Errorf("flappy: cannot decode state: %w", err)
	}
	*g = decoded
	return nil
}

// Digest returns a hash of the full record for determinism checks.
// Two records have the same digest only if every field matches.
func (g GameState) Digest() uint64 {
	data, err := g.MarshalBinary()
	if err != nil {
		// Encoding a fixed-shape struct of scalars cannot fail.
		panic(err)
	}
	return xxhash.Sum64(data)
}

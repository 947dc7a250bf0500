// Package dice supplies the random outcomes for session dice rolls.
//
// Production sources are math/rand generators seeded from crypto/rand. Tests
// use a fixed seed or a Scripted source. Neither is cryptographically
// unpredictable.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

// ErrInvalidSides is returned when a die has fewer than one side.
var ErrInvalidSides = errors.New("dice must have at least one side")

// Source produces a value in [1, sides].
type Source interface {
	Roll(sides uint32) (uint32, error)
}

// NewSeed generates a seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Seeded is a deterministic source for a given seed. Safe for concurrent use.
type Seeded struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded returns a source seeded with seed
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewSource(seed))}
}

// NewHostSource returns a source seeded from host entropy, or from seed when it is non-zero.
func NewHostSource(seed int64) (*Seeded, error) {
	if seed != 0 {
		return NewSeeded(seed), nil
	}
	s, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewSeeded(s), nil
}

func (s *Seeded) Roll(sides uint32) (uint32, error) {
	if sides < 1 {
		return 0, ErrInvalidSides
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint32(s.rng.Int63n(int64(sides))) + 1, nil
}

// Scripted replays fixed outcomes in order, clamped to the die. It is meant for tests.
type Scripted struct {
	mu     sync.Mutex
	values []uint32
	next   int
}

// NewScripted returns a source that yields values in order and then repeats the last one
func NewScripted(values ...uint32) *Scripted {
	return &Scripted{values: values}
}

func (s *Scripted) Roll(sides uint32) (uint32, error) {
	if sides < 1 {
		return 0, ErrInvalidSides
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 1, nil
	}
	i := s.next
	if i >= len(s.values) {
		i = len(s.values) - 1
	} else {
		s.next++
	}
	v := s.values[i]
	switch {
	case v < 1:
		v = 1
	case v > sides:
		v = sides
	}
	return v, nil
}

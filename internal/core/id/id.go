// Package id generates and parses record ids. Ids are UUIDv7, so they sort
// by creation time and make good btree keys.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

type ID = uuid.UUID

// New returns a fresh UUIDv7, or a random UUID if the clock source fails.
func New() ID {
	if v7, err := uuid.NewV7(); err == nil {
		return v7
	}
	return uuid.New()
}

func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// ParseAll parses every string in ss. The error names the first bad value.
func ParseAll(ss []string) ([]ID, error) {
	out := make([]ID, len(ss))
	for i, s := range ss {
		parsed, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", s, err)
		}
		out[i] = parsed
	}
	return out, nil
}

func IsNil(v ID) bool {
	return v == uuid.Nil
}

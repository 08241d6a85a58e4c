package apikey

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/indexgate/internal/domain"
	"github.com/kailas-cloud/indexgate/internal/domain/mapping"
)

// Access is the permission level stored on a key.
type Access string

const (
	// Read grants search and count.
	Read Access = "r"
	// ReadWrite grants everything Read does plus document and index mutation.
	ReadWrite Access = "rw"
)

// IsValid checks if the access level is known.
func (a Access) IsValid() bool {
	return a == Read || a == ReadWrite
}

// Satisfies reports whether a key holding a can perform an operation requiring required.
// rw implies r.
func (a Access) Satisfies(required Access) bool {
	switch required {
	case Read:
		return a == Read || a == ReadWrite
	case ReadWrite:
		return a == ReadWrite
	default:
		return false
	}
}

// Key is a tenant credential.
type Key struct {
	Name    string   `json:"name"`
	Access  Access   `json:"access"`
	Indexes []string `json:"indexes"`
	Expire  int64    `json:"expire,omitempty"` // token lifetime, seconds
}

// Validate checks the record before it is stored. Failures wrap domain.ErrInvalidAPIKey.
func (k Key) Validate() error {
	if err := k.validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidAPIKey, err)
	}
	return nil
}

func (k Key) validate() error {
	if strings.TrimSpace(k.Name) == "" {
		return fmt.Errorf("key name is required")
	}
	if !k.Access.IsValid() {
		return fmt.Errorf("access must be %q or %q, got %q", Read, ReadWrite, k.Access)
	}
	if k.Expire < 0 {
		return fmt.Errorf("expire must not be negative")
	}
	for _, ix := range k.Indexes {
		if mapping.ValidateIndexID(ix) != nil {
			return fmt.Errorf("allow-list entry %q is not a valid index identifier", ix)
		}
	}
	return nil
}

// Allows reports whether index is on the key's allow-list.
func (k Key) Allows(index string) bool {
	return slices.Contains(k.Indexes, index)
}

// WithoutIndex returns a copy of k with index removed from the allow-list.
func (k Key) WithoutIndex(index string) Key {
	out := k
	out.Indexes = slices.DeleteFunc(slices.Clone(k.Indexes), func(s string) bool { return s == index })
	return out
}

// WithIndex returns a copy of k with index added to the allow-list (no duplicates).
func (k Key) WithIndex(index string) Key {
	if k.Allows(index) {
		return k
	}
	out := k
	out.Indexes = append(slices.Clone(k.Indexes), index)
	return out
}

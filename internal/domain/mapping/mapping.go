package mapping

import (
	"crypto/sha1" //nolint:gosec // identifiers, not security
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/indexgate/internal/domain"
)

var indexRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Mapping is the declarative schema of one tenant index.
type Mapping struct {
	Name   string   `json:"name"`
	Tag    string   `json:"tag,omitempty"`
	Fields []Field  `json:"fields,omitempty"`
	Dates  []string `json:"dates,omitempty"`
}

// Validate checks the record before it is stored. Failures wrap domain.ErrInvalidMapping.
func (m Mapping) Validate() error {
	if err := m.validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidMapping, err)
	}
	return nil
}

func (m Mapping) validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("mapping name is required")
	}
	seen := make(map[string]bool, len(m.Fields))
	for _, f := range m.Fields {
		if err := f.Validate(); err != nil {
			return err
		}
		if seen[f.Field] {
			return fmt.Errorf("duplicate field: %s", f.Field)
		}
		seen[f.Field] = true
	}
	for _, d := range m.Dates {
		if d == "" {
			return fmt.Errorf("empty date pattern")
		}
		if _, err := regexp.Compile(d); err != nil {
			return fmt.Errorf("date pattern %q: %w", d, err)
		}
	}
	return nil
}

// FieldByName looks up a descriptor.
func (m Mapping) FieldByName(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Field == name {
			return f, true
		}
	}
	return Field{}, false
}

// SortFields returns the set of fields that carry a .sort sub-field.
func (m Mapping) SortFields() map[string]bool {
	out := make(map[string]bool)
	for _, f := range m.Fields {
		if f.Sortable() {
			out[f.Field] = true
		}
	}
	return out
}

// ValidateIndexID checks an index identifier against engine naming rules.
func ValidateIndexID(id string) error {
	if err := validateIndexID(id); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidMapping, err)
	}
	return nil
}

func validateIndexID(id string) error {
	if id == "" {
		return fmt.Errorf("index identifier is required")
	}
	if len(id) > 255 {
		return fmt.Errorf("index identifier too long (max 255)")
	}
	if !indexRegex.MatchString(id) {
		return fmt.Errorf("index identifier must be lowercase alphanumeric with underscores and hyphens")
	}
	return nil
}

// IndexID derives a stable identifier from a human readable name.
func IndexID(name string) string {
	sum := sha1.Sum([]byte(name)) //nolint:gosec // identifiers, not security
	return hex.EncodeToString(sum[:])
}

package mapping

import (
	"fmt"
	"strings"
)

// TypeString is the legacy engine string type; compiled to a text field.
const TypeString = "string"

// TypeText is the analyzed full-text type.
const TypeText = "text"

// TypeGeoPoint is the engine geographic point type.
const TypeGeoPoint = "geo_point"

// Field describes how one document field is indexed.
type Field struct {
	Field           string `json:"field"`
	Type            string `json:"type,omitempty"`
	Indexable       *bool  `json:"indexable,omitempty"`
	DefaultAnalyzer string `json:"default_analyzer,omitempty"`
	DefaultIndexer  string `json:"default_indexer,omitempty"`
	Language        string `json:"language,omitempty"`
	Country         string `json:"country,omitempty"`
	Sort            bool   `json:"sort,omitempty"`
	Raw             bool   `json:"raw,omitempty"`
	GeoPoint        bool   `json:"geopoint,omitempty"`
}

// IsIndexable reports whether the field is analyzed. Defaults to true.
func (f Field) IsIndexable() bool {
	return f.Indexable == nil || *f.Indexable
}

// HasLocale reports whether both language and country are set.
func (f Field) HasLocale() bool {
	return f.Language != "" && f.Country != ""
}

// Sortable reports whether the compiled field carries a .sort sub-field.
func (f Field) Sortable() bool {
	return f.Sort && !f.GeoPoint && f.IsIndexable()
}

// EngineType returns the type the field should be declared with.
func (f Field) EngineType() string {
	switch {
	case f.GeoPoint:
		return TypeGeoPoint
	case f.Type == "", f.Type == TypeString:
		return TypeText
	default:
		return f.Type
	}
}

// Validate checks a single descriptor.
func (f Field) Validate() error {
	if strings.TrimSpace(f.Field) == "" {
		return fmt.Errorf("field name is required")
	}
	if len(f.Field) > 256 {
		return fmt.Errorf("field name %q too long (max 256)", f.Field)
	}
	if (f.Language == "") != (f.Country == "") {
		return fmt.Errorf("field %q: language and country must be set together", f.Field)
	}
	return nil
}

// Bool returns a pointer to b, for optional descriptor flags.
func Bool(b bool) *bool { return &b }

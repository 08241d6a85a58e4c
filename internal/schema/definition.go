package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Definition is the engine index-creation body: analysis settings plus the
// dynamic mapping rules. Encoding it twice yields identical bytes.
type Definition struct {
	Settings Settings  `json:"settings"`
	Mappings *Mappings `json:"mappings,omitempty"`
}

// Settings holds index-level settings.
type Settings struct {
	Index    IndexSettings `json:"index"`
	Analysis Analysis      `json:"analysis"`
}

// IndexSettings carries the n-gram window the analysis chain needs.
type IndexSettings struct {
	MaxNgramDiff int `json:"max_ngram_diff"`
}

// Analysis declares analyzers and their building blocks by name.
type Analysis struct {
	Analyzer  map[string]Analyzer  `json:"analyzer"`
	Tokenizer map[string]Tokenizer `json:"tokenizer"`
	Filter    map[string]Filter    `json:"filter"`
}

// Analyzer is a custom analyzer chain.
type Analyzer struct {
	Type      string   `json:"type"`
	Tokenizer string   `json:"tokenizer"`
	Filter    []string `json:"filter,omitempty"`
}

// Tokenizer is a named tokenizer declaration.
type Tokenizer struct {
	Type    string `json:"type"`
	Pattern string `json:"pattern,omitempty"`
}

// Filter is a named token filter declaration. Only the fields relevant to Type are set.
type Filter struct {
	Type     string `json:"type"`
	MinGram  int    `json:"min_gram,omitempty"`
	MaxGram  int    `json:"max_gram,omitempty"`
	Language string `json:"language,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Mappings is the typeless mapping section.
type Mappings struct {
	DateDetection    bool              `json:"date_detection"`
	DynamicTemplates []DynamicTemplate `json:"dynamic_templates"`
}

// DynamicTemplate is one named rule. It encodes as {"<name>": {...rule}}.
type DynamicTemplate struct {
	Name string
	Rule Rule
}

// Rule matches new fields by name and applies Mapping to them.
type Rule struct {
	Match        string       `json:"match"`
	MatchPattern string       `json:"match_pattern,omitempty"`
	Mapping      FieldMapping `json:"mapping"`
}

// FieldMapping is the mapping applied to a matched field.
type FieldMapping struct {
	Type           string                  `json:"type"`
	Index          *bool                   `json:"index,omitempty"`
	Analyzer       string                  `json:"analyzer,omitempty"`
	SearchAnalyzer string                  `json:"search_analyzer,omitempty"`
	Fielddata      bool                    `json:"fielddata,omitempty"`
	Fields         map[string]FieldMapping `json:"fields,omitempty"`
}

// MarshalJSON encodes the template as a single-key object.
func (t DynamicTemplate) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]Rule{t.Name: t.Rule})
}

// UnmarshalJSON decodes a single-key object.
func (t *DynamicTemplate) UnmarshalJSON(data []byte) error {
	var m map[string]Rule
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decode dynamic template: %w", err)
	}
	if len(m) != 1 {
		return fmt.Errorf("dynamic template must have exactly one name, got %d", len(m))
	}
	for name, rule := range m {
		t.Name, t.Rule = name, rule
	}
	return nil
}

// JSON encodes the definition without HTML escaping so regex alternations stay readable.
func (d Definition) JSON() (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode definition: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Template returns the rule with the given name.
func (d Definition) Template(name string) (Rule, bool) {
	if d.Mappings == nil {
		return Rule{}, false
	}
	for _, t := range d.Mappings.DynamicTemplates {
		if t.Name == name {
			return t.Rule, true
		}
	}
	return Rule{}, false
}

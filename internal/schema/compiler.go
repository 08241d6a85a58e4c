// Package schema compiles mapping records into engine index definitions.
package schema

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/indexgate/internal/domain/mapping"
)

// Analyzer and filter names shared by every compiled index.
const (
	AnalyzerSearch     = "string_search"
	AnalyzerIndex      = "string_index"
	AnalyzerSort       = "ducet_sort"
	AnalyzerStartsWith = "string_starts_with"

	tokenizerAlnum   = "alpha_nummeric_only"
	filterNgram      = "ngram"
	filterEdgeNgram  = "edge_ngram"
	filterCollation  = "ducet_collation"
	localeSortPrefix = "language_sort_"
	localeCollPrefix = "collation_"

	// DatesTemplate names the rule appended for date-valued fields.
	DatesTemplate = "dates"

	// FieldTemplatePrefix prefixes the per-field rule name.
	FieldTemplatePrefix = "field_"

	// SubFieldSort and SubFieldRaw name the generated sub-fields.
	SubFieldSort = "sort"
	SubFieldRaw  = "raw"

	// DefaultMaxGram is the n-gram upper bound when none is configured.
	DefaultMaxGram = 20
	minGram        = 1
)

// Compiler turns mappings into definitions. It holds no state besides its options.
type Compiler struct {
	maxGram int
}

// New creates a compiler. maxGram <= 0 selects DefaultMaxGram.
func New(maxGram int) *Compiler {
	if maxGram <= 0 {
		maxGram = DefaultMaxGram
	}
	return &Compiler{maxGram: maxGram}
}

// MaxGram returns the configured n-gram upper bound.
func (c *Compiler) MaxGram() int { return c.maxGram }

// Compile builds the index definition for m. Fields produce one rule each in
// declaration order; a non-empty dates list appends one more rule last.
func (c *Compiler) Compile(m mapping.Mapping) (Definition, error) {
	if err := m.Validate(); err != nil {
		return Definition{}, fmt.Errorf("compile %q: %w", m.Name, err)
	}

	def := Definition{Settings: c.baseSettings()}
	if len(m.Fields) == 0 && len(m.Dates) == 0 {
		return def, nil
	}

	def.Mappings = &Mappings{
		DateDetection:    false,
		DynamicTemplates: make([]DynamicTemplate, 0, len(m.Fields)+1),
	}

	for _, f := range m.Fields {
		sortAnalyzer := AnalyzerSort
		if f.Sortable() && f.HasLocale() {
			sortAnalyzer = c.addLocale(&def.Settings.Analysis, f.Language, f.Country)
		}
		def.Mappings.DynamicTemplates = append(def.Mappings.DynamicTemplates, DynamicTemplate{
			Name: FieldTemplatePrefix + f.Field,
			Rule: Rule{Match: f.Field, Mapping: fieldMapping(f, sortAnalyzer)},
		})
	}

	if len(m.Dates) > 0 {
		def.Mappings.DynamicTemplates = append(def.Mappings.DynamicTemplates, DynamicTemplate{
			Name: DatesTemplate,
			Rule: Rule{
				Match:        strings.Join(m.Dates, "|"),
				MatchPattern: "regex",
				Mapping:      FieldMapping{Type: "date"},
			},
		})
	}

	return def, nil
}

func fieldMapping(f mapping.Field, sortAnalyzer string) FieldMapping {
	typ := f.EngineType()
	if f.GeoPoint {
		return FieldMapping{Type: typ}
	}
	if !f.IsIndexable() {
		disabled := false
		return FieldMapping{Type: typ, Index: &disabled}
	}

	fm := FieldMapping{Type: typ}
	if typ == mapping.TypeText {
		fm.Analyzer = AnalyzerIndex
		if f.DefaultIndexer != "" {
			fm.Analyzer = f.DefaultIndexer
		}
		fm.SearchAnalyzer = AnalyzerSearch
		if f.DefaultAnalyzer != "" {
			fm.SearchAnalyzer = f.DefaultAnalyzer
		}
	}

	if f.Sort || f.Raw {
		fm.Fields = make(map[string]FieldMapping, 2)
	}
	if f.Sort {
		fm.Fields[SubFieldSort] = FieldMapping{Type: mapping.TypeText, Analyzer: sortAnalyzer, Fielddata: true}
	}
	if f.Raw {
		fm.Fields[SubFieldRaw] = FieldMapping{Type: "keyword"}
	}
	return fm
}

// addLocale declares a collation filter and analyzer private to one
// language/country pair and returns the analyzer name.
func (c *Compiler) addLocale(a *Analysis, language, country string) string {
	// one filter per locale, whatever case the mapping spelled it in
	language, country = strings.ToLower(language), strings.ToUpper(country)
	suffix := language + "_" + strings.ToLower(country)
	filter := localeCollPrefix + suffix
	analyzer := localeSortPrefix + suffix

	a.Filter[filter] = Filter{Type: "icu_collation", Language: language, Country: country}
	a.Analyzer[analyzer] = Analyzer{Type: "custom", Tokenizer: "keyword", Filter: []string{filter}}
	return analyzer
}

func (c *Compiler) baseSettings() Settings {
	return Settings{
		Index: IndexSettings{MaxNgramDiff: c.maxGram - minGram},
		Analysis: Analysis{
			Analyzer: map[string]Analyzer{
				AnalyzerSearch:     {Type: "custom", Tokenizer: "whitespace", Filter: []string{"lowercase"}},
				AnalyzerIndex:      {Type: "custom", Tokenizer: tokenizerAlnum, Filter: []string{"lowercase", filterNgram}},
				AnalyzerSort:       {Type: "custom", Tokenizer: "keyword", Filter: []string{filterCollation}},
				AnalyzerStartsWith: {Type: "custom", Tokenizer: "keyword", Filter: []string{"lowercase", filterEdgeNgram}},
			},
			Tokenizer: map[string]Tokenizer{
				tokenizerAlnum: {Type: "pattern", Pattern: `[^\p{L}\d]+`},
			},
			Filter: map[string]Filter{
				filterNgram:     {Type: "ngram", MinGram: minGram, MaxGram: c.maxGram},
				filterEdgeNgram: {Type: "edge_ngram", MinGram: minGram, MaxGram: c.maxGram},
				filterCollation: {Type: "icu_collation"},
			},
		},
	}
}

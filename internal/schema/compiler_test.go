package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/indexgate/internal/domain"
	"github.com/kailas-cloud/indexgate/internal/domain/mapping"
)

func mustCompile(t *testing.T, m mapping.Mapping) Definition {
	t.Helper()
	def, err := New(0).Compile(m)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return def
}

func TestCompile_EmptyMapping(t *testing.T) {
	def := mustCompile(t, mapping.Mapping{Name: "empty"})
	if def.Mappings != nil {
		t.Fatalf("expected no mappings section, got %+v", def.Mappings)
	}

	raw, err := def.JSON()
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded["mappings"]; ok {
		t.Error("encoded definition must not carry mappings")
	}

	a := def.Settings.Analysis
	for _, name := range []string{AnalyzerSearch, AnalyzerIndex, AnalyzerSort, AnalyzerStartsWith} {
		if _, ok := a.Analyzer[name]; !ok {
			t.Errorf("base analyzer %q missing", name)
		}
	}
	if f := a.Filter[filterNgram]; f.MinGram != 1 || f.MaxGram != DefaultMaxGram {
		t.Errorf("ngram filter = %+v", f)
	}
	if def.Settings.Index.MaxNgramDiff != DefaultMaxGram-1 {
		t.Errorf("max_ngram_diff = %d", def.Settings.Index.MaxNgramDiff)
	}
}

func TestCompile_MaxGram(t *testing.T) {
	def, err := New(8).Compile(mapping.Mapping{Name: "m"})
	if err != nil {
		t.Fatal(err)
	}
	if got := def.Settings.Analysis.Filter[filterNgram].MaxGram; got != 8 {
		t.Errorf("max_gram = %d, want 8", got)
	}
}

func TestCompile_FieldOrderAndDatesLast(t *testing.T) {
	m := mapping.Mapping{
		Name: "articles",
		Fields: []mapping.Field{
			{Field: "title", Type: "string", Sort: true},
			{Field: "body"},
			{Field: "views", Type: "long"},
		},
		Dates: []string{"created", "changed_.*"},
	}
	def := mustCompile(t, m)

	var names []string
	for _, tpl := range def.Mappings.DynamicTemplates {
		names = append(names, tpl.Name)
	}
	want := []string{"field_title", "field_body", "field_views", "dates"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("template order = %v, want %v", names, want)
	}
	if def.Mappings.DateDetection {
		t.Error("date detection must be disabled")
	}

	dates, _ := def.Template(DatesTemplate)
	if dates.Match != "created|changed_.*" || dates.MatchPattern != "regex" || dates.Mapping.Type != "date" {
		t.Errorf("dates rule = %+v", dates)
	}
}

func TestCompile_DatesOnly(t *testing.T) {
	def := mustCompile(t, mapping.Mapping{Name: "m", Dates: []string{"ts"}})
	if def.Mappings == nil || len(def.Mappings.DynamicTemplates) != 1 {
		t.Fatalf("expected a single dates rule, got %+v", def.Mappings)
	}
}

func TestCompile_FieldRules(t *testing.T) {
	m := mapping.Mapping{
		Name: "places",
		Fields: []mapping.Field{
			{Field: "location", GeoPoint: true, Sort: true, Raw: true},
			{Field: "secret", Type: "string", Indexable: mapping.Bool(false), Sort: true},
			{Field: "name", Type: "string", Sort: true, Raw: true},
			{Field: "city", DefaultAnalyzer: "standard", DefaultIndexer: "simple"},
			{Field: "rank", Type: "integer", Sort: true},
		},
	}
	def := mustCompile(t, m)

	loc, _ := def.Template("field_location")
	if loc.Mapping.Type != "geo_point" || loc.Mapping.Fields != nil || loc.Mapping.Analyzer != "" {
		t.Errorf("geopoint rule = %+v", loc.Mapping)
	}

	secret, _ := def.Template("field_secret")
	if secret.Mapping.Index == nil || *secret.Mapping.Index {
		t.Errorf("non-indexable field must disable indexing: %+v", secret.Mapping)
	}
	if secret.Mapping.Fields != nil {
		t.Error("non-indexable field must not get sub-fields")
	}

	name, _ := def.Template("field_name")
	if name.Match != "name" || name.MatchPattern != "" {
		t.Errorf("field rule must match the exact name: %+v", name)
	}
	if name.Mapping.Type != "text" || name.Mapping.Analyzer != AnalyzerIndex || name.Mapping.SearchAnalyzer != AnalyzerSearch {
		t.Errorf("default analyzers not applied: %+v", name.Mapping)
	}
	if s := name.Mapping.Fields[SubFieldSort]; s.Analyzer != AnalyzerSort || !s.Fielddata {
		t.Errorf("sort sub-field = %+v", s)
	}
	if r := name.Mapping.Fields[SubFieldRaw]; r.Type != "keyword" {
		t.Errorf("raw sub-field = %+v", r)
	}

	city, _ := def.Template("field_city")
	if city.Mapping.Analyzer != "simple" || city.Mapping.SearchAnalyzer != "standard" {
		t.Errorf("analyzer overrides ignored: %+v", city.Mapping)
	}
	if city.Mapping.Fields != nil {
		t.Error("field without sort/raw must not get sub-fields")
	}

	rank, _ := def.Template("field_rank")
	if rank.Mapping.Analyzer != "" || rank.Mapping.SearchAnalyzer != "" {
		t.Errorf("non-text field must not carry analyzers: %+v", rank.Mapping)
	}
	if _, ok := rank.Mapping.Fields[SubFieldSort]; !ok {
		t.Error("sortable numeric field lost its sort sub-field")
	}
}

func TestCompile_LocaleSortAnalyzers(t *testing.T) {
	m := mapping.Mapping{
		Name: "multi",
		Fields: []mapping.Field{
			{Field: "title_da", Sort: true, Language: "da", Country: "DK"},
			{Field: "title_en", Sort: true, Language: "en", Country: "UK"},
			{Field: "title", Sort: true},
		},
	}
	def := mustCompile(t, m)
	a := def.Settings.Analysis

	da, _ := def.Template("field_title_da")
	en, _ := def.Template("field_title_en")
	plain, _ := def.Template("field_title")

	if got := da.Mapping.Fields[SubFieldSort].Analyzer; got != "language_sort_da_dk" {
		t.Errorf("da sort analyzer = %q", got)
	}
	if got := en.Mapping.Fields[SubFieldSort].Analyzer; got != "language_sort_en_uk" {
		t.Errorf("en sort analyzer = %q", got)
	}
	if got := plain.Mapping.Fields[SubFieldSort].Analyzer; got != AnalyzerSort {
		t.Errorf("generic sort analyzer = %q", got)
	}

	if f := a.Filter["collation_da_dk"]; f.Type != "icu_collation" || f.Language != "da" || f.Country != "DK" {
		t.Errorf("da collation filter = %+v", f)
	}
	if f := a.Filter["collation_en_uk"]; f.Language != "en" || f.Country != "UK" {
		t.Errorf("en collation filter = %+v", f)
	}
	if an := a.Analyzer["language_sort_da_dk"]; len(an.Filter) != 1 || an.Filter[0] != "collation_da_dk" {
		t.Errorf("da analyzer = %+v", an)
	}
}

func TestCompile_LocaleCaseSharesFilter(t *testing.T) {
	m := mapping.Mapping{
		Name: "mixed",
		Fields: []mapping.Field{
			{Field: "b", Sort: true, Language: "da", Country: "dk"},
			{Field: "a", Sort: true, Language: "DA", Country: "DK"},
			{Field: "c", Sort: true, Language: "Da", Country: "Dk"},
		},
	}
	a := mustCompile(t, m).Settings.Analysis

	var collations []string
	for name := range a.Filter {
		if strings.HasPrefix(name, "collation_") {
			collations = append(collations, name)
		}
	}
	if len(collations) != 1 || collations[0] != "collation_da_dk" {
		t.Fatalf("collation filters = %v, want only collation_da_dk", collations)
	}
	if f := a.Filter["collation_da_dk"]; f.Language != "da" || f.Country != "DK" {
		t.Errorf("collation params = %+v, want da/DK", f)
	}
}

func TestCompile_Deterministic(t *testing.T) {
	m := mapping.Mapping{
		Name: "stable",
		Fields: []mapping.Field{
			{Field: "a", Sort: true, Raw: true, Language: "de", Country: "DE"},
			{Field: "b", Sort: true, Language: "fr", Country: "FR"},
			{Field: "c", Type: "keyword", Raw: true},
		},
		Dates: []string{"when"},
	}

	var first []byte
	for i := range 20 {
		def, err := New(12).Compile(m)
		if err != nil {
			t.Fatal(err)
		}
		raw, err := def.JSON()
		if err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			first = raw
			continue
		}
		if !bytes.Equal(first, raw) {
			t.Fatalf("run %d differs:\n%s\n%s", i, first, raw)
		}
	}
}

func TestCompile_InputUntouched(t *testing.T) {
	m := mapping.Mapping{Name: "m", Fields: []mapping.Field{{Field: "x", Sort: true}}}
	before, _ := json.Marshal(m)
	mustCompile(t, m)
	after, _ := json.Marshal(m)
	if !bytes.Equal(before, after) {
		t.Error("compile mutated its input")
	}
}

func TestCompile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		m    mapping.Mapping
	}{
		{"no name", mapping.Mapping{}},
		{"duplicate field", mapping.Mapping{Name: "m", Fields: []mapping.Field{{Field: "a"}, {Field: "a"}}}},
		{"half locale", mapping.Mapping{Name: "m", Fields: []mapping.Field{{Field: "a", Language: "da"}}}},
		{"bad date regex", mapping.Mapping{Name: "m", Dates: []string{"("}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(0).Compile(tc.m); !errors.Is(err, domain.ErrInvalidMapping) {
				t.Fatalf("expected ErrInvalidMapping, got %v", err)
			}
		})
	}
}

func TestDynamicTemplate_JSONShape(t *testing.T) {
	tpl := DynamicTemplate{Name: "field_x", Rule: Rule{Match: "x", Mapping: FieldMapping{Type: "text"}}}
	raw, err := json.Marshal(tpl)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"field_x":{"match":"x","mapping":{"type":"text"}}}` {
		t.Errorf("unexpected encoding %s", raw)
	}

	var back DynamicTemplate
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if back.Name != "field_x" || back.Rule.Match != "x" {
		t.Errorf("decoded %+v", back)
	}
}

package query

import "encoding/json"

// Hit is one flattened search result: the stored document plus metadata keys.
type Hit map[string]any

// Result is the search envelope returned to clients.
type Result struct {
	Total        int64           `json:"hits"`
	Results      []Hit           `json:"results"`
	Aggregations json.RawMessage `json:"aggregations,omitempty"`
}

// CountResult carries aggregation buckets only.
type CountResult struct {
	Aggregations json.RawMessage `json:"aggregations,omitempty"`
}

// Metadata keys added to every flattened hit.
const (
	KeyID        = "_id"
	KeyScore     = "_score"
	KeyHighlight = "_highlight"
)

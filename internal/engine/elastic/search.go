package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/kailas-cloud/indexgate/internal/engine"
)

type searchResponse struct {
	Hits struct {
		Total json.RawMessage `json:"total"`
		Hits  []struct {
			ID        string          `json:"_id"`
			Score     *float64        `json:"_score"`
			Source    json.RawMessage `json:"_source"`
			Highlight json.RawMessage `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations json.RawMessage `json:"aggregations"`
}

// Search runs body against the index, restricted to docType when set.
func (c *Client) Search(ctx context.Context, name, docType string, body json.RawMessage) (engine.SearchResult, error) {
	scoped, err := scopeToType(body, docType)
	if err != nil {
		return engine.SearchResult{}, &engine.Error{
			Op: engine.OpSearch, Index: name, Status: http.StatusBadRequest, Type: "parsing_exception", Reason: err.Error(),
		}
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(name),
		c.es.Search.WithBody(bytes.NewReader(scoped)),
		c.es.Search.WithSourceExcludes(TypeField),
	)
	if err != nil {
		return engine.SearchResult{}, engine.NewTransportError(engine.OpSearch, name, err)
	}
	defer closeBody(res)
	if res.IsError() {
		return engine.SearchResult{}, responseError(engine.OpSearch, name, res)
	}

	var sr searchResponse
	if err := decode(engine.OpSearch, name, res, &sr); err != nil {
		return engine.SearchResult{}, err
	}

	out := engine.SearchResult{
		Total:        parseTotal(sr.Hits.Total),
		Hits:         make([]engine.Hit, 0, len(sr.Hits.Hits)),
		Aggregations: sr.Aggregations,
	}
	for _, h := range sr.Hits.Hits {
		out.Hits = append(out.Hits, engine.Hit{ID: h.ID, Score: h.Score, Source: h.Source, Highlight: h.Highlight})
	}
	return out, nil
}

// parseTotal accepts both {"value":N} and a bare number.
func parseTotal(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var obj struct {
		Value int64 `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Value
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	return 0
}

// scopeToType wraps the query so only documents stamped with docType match.
func scopeToType(body json.RawMessage, docType string) (json.RawMessage, error) {
	req := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, err //nolint:wrapcheck // surfaced as the engine reason
		}
	}
	if req == nil {
		// a literal null decodes to a nil map
		req = map[string]json.RawMessage{}
	}
	if docType == "" {
		return json.Marshal(req) //nolint:wrapcheck // map of raw messages
	}

	must := json.RawMessage(`{"match_all":{}}`)
	if q, ok := req["query"]; ok && len(q) > 0 && string(q) != "null" {
		must = q
	}

	filter, err := json.Marshal(map[string]map[string]string{"term": {TypeField: docType}})
	if err != nil {
		return nil, err //nolint:wrapcheck // static shape
	}
	wrapped, err := json.Marshal(map[string]any{
		"bool": map[string]any{
			"must":   []json.RawMessage{must},
			"filter": []json.RawMessage{filter},
		},
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // static shape
	}
	req["query"] = wrapped
	return json.Marshal(req) //nolint:wrapcheck // map of raw messages
}

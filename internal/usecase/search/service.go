// Package search runs tenant queries against an index's physical schema.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/indexgate/internal/domain"
	"github.com/kailas-cloud/indexgate/internal/domain/apikey"
	"github.com/kailas-cloud/indexgate/internal/domain/mapping"
	"github.com/kailas-cloud/indexgate/internal/domain/query"
	"github.com/kailas-cloud/indexgate/internal/engine"
)

// Service authorizes, translates and executes search and count requests.
type Service struct {
	guard    Authorizer
	mappings MappingReader
	engine   Searcher
}

// New creates a search service.
func New(guard Authorizer, mappings MappingReader, engine Searcher) *Service {
	return &Service{guard: guard, mappings: mappings, engine: engine}
}

// Search runs body against index for documents of docType and returns flattened hits.
func (s *Service) Search(ctx context.Context, key, index, docType string, body json.RawMessage) (query.Result, error) {
	res, err := s.run(ctx, key, index, docType, body)
	if err != nil {
		return query.Result{}, err
	}

	out := query.Result{
		Total:        res.Total,
		Results:      make([]query.Hit, 0, len(res.Hits)),
		Aggregations: res.Aggregations,
	}
	for _, h := range res.Hits {
		hit, err := flatten(h)
		if err != nil {
			return query.Result{}, fmt.Errorf("hit %s: %w", h.ID, err)
		}
		out.Results = append(out.Results, hit)
	}
	return out, nil
}

// Count runs body for its aggregations only; no hits are fetched.
func (s *Service) Count(ctx context.Context, key, index, docType string, body json.RawMessage) (query.CountResult, error) {
	sized, err := withZeroSize(body)
	if err != nil {
		return query.CountResult{}, err
	}
	res, err := s.run(ctx, key, index, docType, sized)
	if err != nil {
		return query.CountResult{}, err
	}
	return query.CountResult{Aggregations: res.Aggregations}, nil
}

func (s *Service) run(
	ctx context.Context, key, index, docType string, body json.RawMessage,
) (engine.SearchResult, error) {
	if _, err := s.guard.AuthorizeIndex(ctx, key, apikey.Read, index); err != nil {
		return engine.SearchResult{}, err //nolint:wrapcheck // authorization errors pass through as is
	}

	m, err := s.mapping(ctx, index)
	if err != nil {
		return engine.SearchResult{}, err
	}

	body, err = requestObject(body)
	if err != nil {
		return engine.SearchResult{}, err
	}
	physical, err := Translate(body, m)
	if err != nil {
		return engine.SearchResult{}, err
	}

	res, err := s.engine.Search(ctx, index, docType, physical)
	if err != nil {
		return engine.SearchResult{}, fmt.Errorf("search %s: %w", index, err)
	}
	return res, nil
}

func (s *Service) mapping(ctx context.Context, index string) (mapping.Mapping, error) {
	m, found, err := s.mappings.Get(ctx, index)
	if err != nil {
		return mapping.Mapping{}, fmt.Errorf("get mapping: %w", err)
	}
	if !found {
		return mapping.Mapping{}, fmt.Errorf("%w: %s", domain.ErrUnknownIndex, index)
	}
	return m, nil
}

// flatten merges engine metadata into the stored document.
func flatten(h engine.Hit) (query.Hit, error) {
	hit := query.Hit{}
	if len(h.Source) > 0 {
		dec := json.NewDecoder(bytes.NewReader(h.Source))
		dec.UseNumber()
		if err := dec.Decode(&hit); err != nil {
			return nil, fmt.Errorf("decode source: %w", err)
		}
		if hit == nil {
			hit = query.Hit{}
		}
	}

	hit[query.KeyID] = h.ID
	if h.Score != nil {
		hit[query.KeyScore] = *h.Score
	} else {
		hit[query.KeyScore] = nil
	}
	if len(h.Highlight) > 0 && string(h.Highlight) != "null" {
		hit[query.KeyHighlight] = h.Highlight
	}
	return hit, nil
}

// requestObject accepts an empty body, a JSON object or a literal null (read
// as empty). Anything else is not a search request.
func requestObject(body json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		return nil, nil
	case trimmed[0] != '{':
		return nil, fmt.Errorf("%w: request body must be a JSON object", domain.ErrInvalidQuery)
	}
	return body, nil
}

func withZeroSize(body json.RawMessage) (json.RawMessage, error) {
	req := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
		}
		if req == nil {
			req = map[string]json.RawMessage{}
		}
	}
	req["size"] = json.RawMessage("0")
	out, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	return out, nil
}

package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kailas-cloud/indexgate/internal/domain/index"
	"github.com/kailas-cloud/indexgate/internal/engine"
)

// IndexExists reports whether a physical index exists.
func (c *Client) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := c.es.Indices.Exists([]string{name}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, engine.NewTransportError(engine.OpIndexExists, name, err)
	}
	defer closeBody(res)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, responseError(engine.OpIndexExists, name, res)
	}
}

// CreateIndex creates a physical index from a compiled definition. The type
// stamp field is always mapped as keyword so tenant rules cannot retype it.
func (c *Client) CreateIndex(ctx context.Context, name string, definition json.RawMessage) error {
	body, err := withTypeField(definition)
	if err != nil {
		return &engine.Error{Op: engine.OpCreateIndex, Index: name, Status: http.StatusBadRequest, Type: "mapper_parsing_exception", Reason: "invalid index definition: " + err.Error()}
	}
	res, err := c.es.Indices.Create(name,
		c.es.Indices.Create.WithBody(bytes.NewReader(body)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return engine.NewTransportError(engine.OpCreateIndex, name, err)
	}
	defer closeBody(res)
	if res.IsError() {
		return responseError(engine.OpCreateIndex, name, res)
	}
	return nil
}

// withTypeField adds an explicit keyword property for TypeField. Explicit
// properties win over dynamic templates.
func withTypeField(definition json.RawMessage) (json.RawMessage, error) {
	def := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(definition)) > 0 {
		if err := json.Unmarshal(definition, &def); err != nil {
			return nil, err //nolint:wrapcheck // reported as the engine reason
		}
	}
	if def == nil {
		def = map[string]json.RawMessage{}
	}

	mappings := map[string]json.RawMessage{}
	if raw, ok := def["mappings"]; ok {
		if err := json.Unmarshal(raw, &mappings); err != nil {
			return nil, err //nolint:wrapcheck // reported as the engine reason
		}
		if mappings == nil {
			mappings = map[string]json.RawMessage{}
		}
	}
	props := map[string]json.RawMessage{}
	if raw, ok := mappings["properties"]; ok {
		if err := json.Unmarshal(raw, &props); err != nil {
			return nil, err //nolint:wrapcheck // reported as the engine reason
		}
		if props == nil {
			props = map[string]json.RawMessage{}
		}
	}

	props[TypeField] = json.RawMessage(`{"type":"keyword"}`)
	var err error
	if mappings["properties"], err = json.Marshal(props); err != nil {
		return nil, err //nolint:wrapcheck // map of raw messages
	}
	if def["mappings"], err = json.Marshal(mappings); err != nil {
		return nil, err //nolint:wrapcheck // map of raw messages
	}
	return json.Marshal(def) //nolint:wrapcheck // map of raw messages
}

// DeleteIndex drops a physical index and all its documents.
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	res, err := c.es.Indices.Delete([]string{name}, c.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return engine.NewTransportError(engine.OpDeleteIndex, name, err)
	}
	defer closeBody(res)
	if res.IsError() {
		return responseError(engine.OpDeleteIndex, name, res)
	}
	return nil
}

type catRow struct {
	Health      string `json:"health"`
	Index       string `json:"index"`
	DocsCount   string `json:"docs.count"`
	DocsDeleted string `json:"docs.deleted"`
	StoreSize   string `json:"store.size"`
	Pri         string `json:"pri"`
	Rep         string `json:"rep"`
}

// Catalog lists physical indexes with health and size.
func (c *Client) Catalog(ctx context.Context) ([]index.CatalogEntry, error) {
	res, err := c.es.Cat.Indices(
		c.es.Cat.Indices.WithContext(ctx),
		c.es.Cat.Indices.WithFormat("json"),
		c.es.Cat.Indices.WithBytes("b"),
		c.es.Cat.Indices.WithH("health", "index", "docs.count", "docs.deleted", "store.size", "pri", "rep"),
	)
	if err != nil {
		return nil, engine.NewTransportError(engine.OpCatalog, "", err)
	}
	defer closeBody(res)
	if res.IsError() {
		return nil, responseError(engine.OpCatalog, "", res)
	}

	var rows []catRow
	if err := decode(engine.OpCatalog, "", res, &rows); err != nil {
		return nil, err
	}

	out := make([]index.CatalogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, index.CatalogEntry{
			Name:         r.Index,
			Health:       index.HealthFromColor(r.Health),
			DocCount:     atoi64(r.DocsCount),
			DeletedCount: atoi64(r.DocsDeleted),
			SizeBytes:    atoi64(r.StoreSize),
			Primaries:    int(atoi64(r.Pri)),
			Replicas:     int(atoi64(r.Rep)),
		})
	}
	return out, nil
}

// atoi64 parses a _cat column. Closed or initializing indexes report empty columns.
func atoi64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

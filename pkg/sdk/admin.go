package indexgate

import (
	"context"
	"net/http"
)

// AdminService manages mappings, physical indexes and API keys.
type AdminService struct {
	c *Client
}

type createMappingRequest struct {
	Index string `json:"index,omitempty"`
	Mapping
}

type createKeyRequest struct {
	Secret string `json:"key,omitempty"`
	Key
}

func (a *AdminService) call(ctx context.Context, op, method, path string, in, out any) error {
	return a.c.call(ctx, op, method, "/admin"+path, a.c.adminKey, in, out)
}

// Mappings returns every mapping keyed by index identifier.
func (a *AdminService) Mappings(ctx context.Context) (map[string]Mapping, error) {
	var out map[string]Mapping
	if err := a.call(ctx, "mappings.list", http.MethodGet, "/mappings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateMapping stores m under id. An empty id lets the server derive one
// from the mapping name. Returns the identifier used.
func (a *AdminService) CreateMapping(ctx context.Context, id string, m Mapping) (string, error) {
	var out mappingCreated
	req := createMappingRequest{Index: id, Mapping: m}
	if err := a.call(ctx, "mappings.create", http.MethodPost, "/mappings", req, &out); err != nil {
		return "", err
	}
	return out.Index, nil
}

// Mapping returns the mapping stored under id.
func (a *AdminService) Mapping(ctx context.Context, id string) (Mapping, error) {
	var out Mapping
	err := a.call(ctx, "mappings.get", http.MethodGet, "/mappings/"+segment(id), nil, &out)
	return out, err
}

// UpdateMapping replaces the mapping stored under id.
func (a *AdminService) UpdateMapping(ctx context.Context, id string, m Mapping) error {
	return a.call(ctx, "mappings.update", http.MethodPut, "/mappings/"+segment(id), m, nil)
}

// RemoveMapping deletes the mapping of an inactive index.
func (a *AdminService) RemoveMapping(ctx context.Context, id string) error {
	return a.call(ctx, "mappings.remove", http.MethodDelete, "/mappings/"+segment(id), nil, nil)
}

// Activate creates the physical index for a mapped identifier.
func (a *AdminService) Activate(ctx context.Context, id string) (TransitionResult, error) {
	var out TransitionResult
	err := a.call(ctx, "index.activate", http.MethodPost, "/indexes/"+segment(id)+"/activate", nil, &out)
	return out, err
}

// Flush drops and recreates the physical index, deleting every document.
func (a *AdminService) Flush(ctx context.Context, id string) (TransitionResult, error) {
	var out TransitionResult
	err := a.call(ctx, "index.flush", http.MethodPost, "/indexes/"+segment(id)+"/flush", nil, &out)
	return out, err
}

// RemoveIndex deletes the physical index, its mapping and every key reference.
// On a partial failure the report is also available on the returned *APIError.
func (a *AdminService) RemoveIndex(ctx context.Context, id string) (*RemoveReport, error) {
	var out RemoveReport
	if err := a.call(ctx, "index.remove", http.MethodDelete, "/indexes/"+segment(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Catalog lists every physical index the engine reports.
func (a *AdminService) Catalog(ctx context.Context) ([]CatalogEntry, error) {
	var out []CatalogEntry
	err := a.call(ctx, "catalog", http.MethodGet, "/catalog", nil, &out)
	return out, err
}

// Keys lists every API key.
func (a *AdminService) Keys(ctx context.Context) ([]KeyEntry, error) {
	var out []KeyEntry
	err := a.call(ctx, "keys.list", http.MethodGet, "/keys", nil, &out)
	return out, err
}

// CreateKey stores rec under key. An empty key lets the server generate one.
// Returns the key secret.
func (a *AdminService) CreateKey(ctx context.Context, key string, rec Key) (string, error) {
	var out keyCreated
	req := createKeyRequest{Secret: key, Key: rec}
	if err := a.call(ctx, "keys.create", http.MethodPost, "/keys", req, &out); err != nil {
		return "", err
	}
	return out.Key, nil
}

// Key returns the record of key.
func (a *AdminService) Key(ctx context.Context, key string) (Key, error) {
	var out Key
	err := a.call(ctx, "keys.get", http.MethodGet, "/keys/"+segment(key), nil, &out)
	return out, err
}

// UpdateKey replaces the record of key.
func (a *AdminService) UpdateKey(ctx context.Context, key string, rec Key) error {
	return a.call(ctx, "keys.update", http.MethodPut, "/keys/"+segment(key), rec, nil)
}

// RemoveKey deletes key.
func (a *AdminService) RemoveKey(ctx context.Context, key string) error {
	return a.call(ctx, "keys.remove", http.MethodDelete, "/keys/"+segment(key), nil, nil)
}

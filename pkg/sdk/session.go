package indexgate

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// refreshMargin is how long before expiry a session token is renewed.
const refreshMargin = 30 * time.Second

// Session is a tenant login. Its token is renewed with the API key when it
// is about to expire.
type Session struct {
	c      *Client
	apiKey string

	mu    sync.Mutex
	token Token
}

type tokenRequest struct {
	APIKey string `json:"apikey"`
}

// Login exchanges apiKey for a session token.
func (c *Client) Login(ctx context.Context, apiKey string) (*Session, error) {
	s := &Session{c: c, apiKey: apiKey}
	if _, err := s.bearer(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Token returns the current session token.
func (s *Session) Token() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) bearer(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token.Token != "" && s.c.now().Add(refreshMargin).Before(s.token.ExpiresAt) {
		return s.token.Token, nil
	}
	var tok Token
	if err := s.c.call(ctx, "token", http.MethodPost, "/api/auth/token", "", tokenRequest{APIKey: s.apiKey}, &tok); err != nil {
		return "", err
	}
	s.token = tok
	return tok.Token, nil
}

func (s *Session) call(ctx context.Context, op, method, path string, in, out any) error {
	token, err := s.bearer(ctx)
	if err != nil {
		return err
	}
	return s.c.call(ctx, op, method, "/api"+path, token, in, out)
}

// Indexes lists the indexes on the key's allow-list with their state.
func (s *Session) Indexes(ctx context.Context) ([]IndexSummary, error) {
	var out []IndexSummary
	err := s.call(ctx, "indexes", http.MethodGet, "/indexes", nil, &out)
	return out, err
}

// Catalog lists the physical indexes the key may see.
func (s *Session) Catalog(ctx context.Context) ([]CatalogEntry, error) {
	var out []CatalogEntry
	err := s.call(ctx, "catalog", http.MethodGet, "/catalog", nil, &out)
	return out, err
}

// Index returns a handle on one index.
func (s *Session) Index(id string) *IndexService {
	return &IndexService{s: s, id: id}
}

// IndexService runs lifecycle operations a read-write key may perform on its
// own indexes.
type IndexService struct {
	s  *Session
	id string
}

// Activate creates the physical index.
func (i *IndexService) Activate(ctx context.Context) (TransitionResult, error) {
	var out TransitionResult
	err := i.s.call(ctx, "index.activate", http.MethodPost, "/indexes/"+segment(i.id)+"/activate", nil, &out)
	return out, err
}

// Flush deletes every document by recreating the physical index.
func (i *IndexService) Flush(ctx context.Context) (TransitionResult, error) {
	var out TransitionResult
	err := i.s.call(ctx, "index.flush", http.MethodPost, "/indexes/"+segment(i.id)+"/flush", nil, &out)
	return out, err
}

// Remove deletes the physical index and its mapping.
func (i *IndexService) Remove(ctx context.Context) (*RemoveReport, error) {
	var out RemoveReport
	if err := i.s.call(ctx, "index.remove", http.MethodDelete, "/indexes/"+segment(i.id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Documents returns the document service for one document type.
func (i *IndexService) Documents(docType string) *DocumentService {
	return &DocumentService{s: i.s, prefix: "/" + segment(i.id) + "/" + segment(docType)}
}

// DocumentService writes and queries documents of one type.
type DocumentService struct {
	s      *Session
	prefix string
}

// Add stores doc under an engine-assigned id.
func (d *DocumentService) Add(ctx context.Context, doc any) (WriteResult, error) {
	var out WriteResult
	err := d.s.call(ctx, "documents.add", http.MethodPost, d.prefix+"/documents", doc, &out)
	return out, err
}

// Put stores doc under id, replacing any previous version.
func (d *DocumentService) Put(ctx context.Context, id string, doc any) (WriteResult, error) {
	var out WriteResult
	err := d.s.call(ctx, "documents.put", http.MethodPost, d.prefix+"/documents/"+segment(id), doc, &out)
	return out, err
}

// Update merges partial into the document stored under id.
func (d *DocumentService) Update(ctx context.Context, id string, partial any) error {
	return d.s.call(ctx, "documents.update", http.MethodPut, d.prefix+"/documents/"+segment(id), partial, nil)
}

// Delete removes the document stored under id.
func (d *DocumentService) Delete(ctx context.Context, id string) error {
	return d.s.call(ctx, "documents.delete", http.MethodDelete, d.prefix+"/documents/"+segment(id), nil, nil)
}

// Search runs an engine query. Sort clauses may name mapping fields; the
// server rewrites them to their sortable form.
func (d *DocumentService) Search(ctx context.Context, q any) (SearchResult, error) {
	var out SearchResult
	err := d.s.call(ctx, "search", http.MethodPost, d.prefix+"/_search", queryBody(q), &out)
	return out, err
}

// Count runs q for its aggregations only.
func (d *DocumentService) Count(ctx context.Context, q any) (CountResult, error) {
	var out CountResult
	err := d.s.call(ctx, "count", http.MethodPost, d.prefix+"/_count", queryBody(q), &out)
	return out, err
}

// queryBody sends an empty object for a nil query.
func queryBody(q any) any {
	if q == nil {
		return map[string]any{}
	}
	return q
}

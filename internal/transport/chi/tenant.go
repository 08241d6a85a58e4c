package chi

import (
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/indexgate/internal/domain/apikey"
	"github.com/kailas-cloud/indexgate/internal/domain/index"
	"github.com/kailas-cloud/indexgate/internal/engine"
	"github.com/kailas-cloud/indexgate/internal/logger"
)

type tokenRequest struct {
	APIKey string `json:"apikey"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken handles POST /api/auth/token.
func (s *Server) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeJSON(w, r, s.maxBodyBytes, &req) {
		return
	}
	rec, err := s.guard.Authorize(r.Context(), req.APIKey, apikey.Read)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	token, expires, err := s.tokens.Issue(req.APIKey, rec.Expire)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("Token issued", zap.String("key_name", rec.Name))
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expires.UTC()})
}

// ListIndexes handles GET /api/indexes.
func (s *Server) ListIndexes(w http.ResponseWriter, r *http.Request) {
	out, err := s.keys.ListIndexes(r.Context(), apiKeyFrom(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// TenantCatalog handles GET /api/catalog: the engine catalog restricted to the
// key's allow-list.
func (s *Server) TenantCatalog(w http.ResponseWriter, r *http.Request) {
	rec, err := s.guard.Authorize(r.Context(), apiKeyFrom(r.Context()), apikey.Read)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	entries, err := s.lifecycle.Catalog(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	visible := slices.DeleteFunc(entries, func(e index.CatalogEntry) bool { return !rec.Allows(e.Name) })
	writeJSON(w, http.StatusOK, visible)
}

// TenantActivate handles POST /api/indexes/{index}/activate.
func (s *Server) TenantActivate(w http.ResponseWriter, r *http.Request) {
	if id, ok := s.writableIndex(w, r); ok {
		s.activate(w, r, id)
	}
}

// TenantFlush handles POST /api/indexes/{index}/flush.
func (s *Server) TenantFlush(w http.ResponseWriter, r *http.Request) {
	if id, ok := s.writableIndex(w, r); ok {
		s.flush(w, r, id)
	}
}

// TenantRemoveIndex handles DELETE /api/indexes/{index}.
func (s *Server) TenantRemoveIndex(w http.ResponseWriter, r *http.Request) {
	if id, ok := s.writableIndex(w, r); ok {
		s.removeIndex(w, r, id)
	}
}

// AddDocument handles POST /api/{index}/{type}/documents. The engine assigns the id.
func (s *Server) AddDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := pathParams(w, r, paramIndex, paramType)
	if !ok {
		return
	}
	s.addDocument(w, r, p[0], p[1], "")
}

// AddDocumentWithID handles POST /api/{index}/{type}/documents/{id}.
func (s *Server) AddDocumentWithID(w http.ResponseWriter, r *http.Request) {
	p, ok := pathParams(w, r, paramIndex, paramType, paramID)
	if !ok {
		return
	}
	s.addDocument(w, r, p[0], p[1], p[2])
}

func (s *Server) addDocument(w http.ResponseWriter, r *http.Request, idx, docType, id string) {
	body, ok := readJSONObject(w, r, s.maxBodyBytes)
	if !ok {
		return
	}

	res, err := s.documents.Add(r.Context(), apiKeyFrom(r.Context()), idx, docType, id, body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	status := http.StatusOK
	if res == engine.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"index": idx, "type": docType, "id": id, "result": res})
}

// UpdateDocument handles PUT /api/{index}/{type}/documents/{id}.
func (s *Server) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := pathParams(w, r, paramIndex, paramType, paramID)
	if !ok {
		return
	}
	body, ok := readJSONObject(w, r, s.maxBodyBytes)
	if !ok {
		return
	}
	if err := s.documents.Update(r.Context(), apiKeyFrom(r.Context()), p[0], p[1], p[2], body); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"index": p[0], "type": p[1], "id": p[2], "result": "updated"})
}

// RemoveDocument handles DELETE /api/{index}/{type}/documents/{id}.
func (s *Server) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := pathParams(w, r, paramIndex, paramType, paramID)
	if !ok {
		return
	}
	if err := s.documents.Remove(r.Context(), apiKeyFrom(r.Context()), p[0], p[1], p[2]); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles POST /api/{index}/{type}/_search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	p, ok := pathParams(w, r, paramIndex, paramType)
	if !ok {
		return
	}
	body, ok := readBody(w, r, s.maxBodyBytes)
	if !ok {
		return
	}
	res, err := s.search.Search(r.Context(), apiKeyFrom(r.Context()), p[0], p[1], body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Count handles POST /api/{index}/{type}/_count.
func (s *Server) Count(w http.ResponseWriter, r *http.Request) {
	p, ok := pathParams(w, r, paramIndex, paramType)
	if !ok {
		return
	}
	body, ok := readBody(w, r, s.maxBodyBytes)
	if !ok {
		return
	}
	res, err := s.search.Count(r.Context(), apiKeyFrom(r.Context()), p[0], p[1], body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writableIndex binds {index} and checks the caller's key holds rw on it.
func (s *Server) writableIndex(w http.ResponseWriter, r *http.Request) (string, bool) {
	p, ok := pathParams(w, r, paramIndex)
	if !ok {
		return "", false
	}
	if _, err := s.guard.AuthorizeIndex(r.Context(), apiKeyFrom(r.Context()), apikey.ReadWrite, p[0]); err != nil {
		s.handleDomainError(w, r, err)
		return "", false
	}
	return p[0], true
}

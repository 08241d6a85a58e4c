package chi

import (
	"net/http"

	"github.com/kailas-cloud/indexgate/internal/domain/apikey"
	"github.com/kailas-cloud/indexgate/internal/domain/mapping"
)

type createMappingRequest struct {
	Index string `json:"index"`
	mapping.Mapping
}

type createKeyRequest struct {
	Secret string `json:"key"`
	apikey.Key
}

// ListMappings handles GET /admin/mappings.
func (s *Server) ListMappings(w http.ResponseWriter, r *http.Request) {
	all, err := s.lifecycle.ListMappings(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// CreateMapping handles POST /admin/mappings. Without an explicit index the
// identifier is derived from the mapping name.
func (s *Server) CreateMapping(w http.ResponseWriter, r *http.Request) {
	var req createMappingRequest
	if !decodeJSON(w, r, s.maxBodyBytes, &req) {
		return
	}
	id := req.Index
	if id == "" {
		id = mapping.IndexID(req.Name)
	}

	if err := s.lifecycle.CreateMapping(r.Context(), id, req.Mapping); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"index": id, "mapping": req.Mapping})
}

// GetMapping handles GET /admin/mappings/{index}.
func (s *Server) GetMapping(w http.ResponseWriter, r *http.Request) {
	p, ok := pathParams(w, r, paramIndex)
	if !ok {
		return
	}
	m, err := s.lifecycle.GetMapping(r.Context(), p[0])
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// UpdateMapping handles PUT /admin/mappings/{index}.
func (s *Server) UpdateMapping(w http.ResponseWriter, r *http.Request) {
	p, ok := pathParams(w, r, paramIndex)
	if !ok {
		return
	}
	var m mapping.Mapping
	if !decodeJSON(w, r, s.maxBodyBytes, &m) {
		return
	}
	if err := s.lifecycle.UpdateMapping(r.Context(), p[0], m); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// RemoveMapping handles DELETE /admin/mappings/{index}.
func (s *Server) RemoveMapping(w http.ResponseWriter, r *http.Request) {
	p, ok := pathParams(w, r, paramIndex)
	if !ok {
		return
	}
	if err := s.lifecycle.RemoveMapping(r.Context(), p[0]); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminActivate handles POST /admin/indexes/{index}/activate.
func (s *Server) AdminActivate(w http.ResponseWriter, r *http.Request) {
	p, ok := pathParams(w, r, paramIndex)
	if !ok {
		return
	}
	s.activate(w, r, p[0])
}

// AdminFlush handles POST /admin/indexes/{index}/flush.
func (s *Server) AdminFlush(w http.ResponseWriter, r *http.Request) {
	p, ok := pathParams(w, r, paramIndex)
	if !ok {
		return
	}
	s.flush(w, r, p[0])
}

// AdminRemoveIndex handles DELETE /admin/indexes/{index}.
func (s *Server) AdminRemoveIndex(w http.ResponseWriter, r *http.Request) {
	p, ok := pathParams(w, r, paramIndex)
	if !ok {
		return
	}
	s.removeIndex(w, r, p[0])
}

// AdminCatalog handles GET /admin/catalog.
func (s *Server) AdminCatalog(w http.ResponseWriter, r *http.Request) {
	entries, err := s.lifecycle.Catalog(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ListKeys handles GET /admin/keys.
func (s *Server) ListKeys(w http.ResponseWriter, r *http.Request) {
	entries, err := s.keys.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// CreateKey handles POST /admin/keys. Without an explicit key one is generated.
func (s *Server) CreateKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if !decodeJSON(w, r, s.maxBodyBytes, &req) {
		return
	}
	key, err := s.keys.Create(r.Context(), req.Secret, req.Key)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"key": key, "record": req.Key})
}

// GetKey handles GET /admin/keys/{key}.
func (s *Server) GetKey(w http.ResponseWriter, r *http.Request) {
	p, ok := pathParams(w, r, paramKey)
	if !ok {
		return
	}
	rec, err := s.keys.Get(r.Context(), p[0])
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// UpdateKey handles PUT /admin/keys/{key}.
func (s *Server) UpdateKey(w http.ResponseWriter, r *http.Request) {
	p, ok := pathParams(w, r, paramKey)
	if !ok {
		return
	}
	var rec apikey.Key
	if !decodeJSON(w, r, s.maxBodyBytes, &rec) {
		return
	}
	if err := s.keys.Update(r.Context(), p[0], rec); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// RemoveKey handles DELETE /admin/keys/{key}.
func (s *Server) RemoveKey(w http.ResponseWriter, r *http.Request) {
	p, ok := pathParams(w, r, paramKey)
	if !ok {
		return
	}
	if err := s.keys.Remove(r.Context(), p[0]); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

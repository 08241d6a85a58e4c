package chi

import "net/http"

func (s *Server) activate(w http.ResponseWriter, r *http.Request, id string) {
	res, err := s.lifecycle.Activate(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) flush(w http.ResponseWriter, r *http.Request, id string) {
	res, err := s.lifecycle.Flush(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) removeIndex(w http.ResponseWriter, r *http.Request, id string) {
	report, err := s.lifecycle.Remove(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

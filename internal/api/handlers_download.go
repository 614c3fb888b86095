package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "resultID")
	res := s.converter.Result(id)
	if res == nil {
		http.Error(w, "download not found or expired", http.StatusNotFound)
		return
	}
	writeWorkbook(w, res)
}

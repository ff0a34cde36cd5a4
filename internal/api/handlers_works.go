package api

import (
	"net/http"
	"strconv"

	"github.com/dgallion1/customtrans/internal/catalog"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListWorks(w http.ResponseWriter, r *http.Request) {
	works, err := s.orchestrator.Catalog.Works(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"works": works})
}

func (s *Server) handleGetWork(w http.ResponseWriter, r *http.Request) {
	work, err := s.orchestrator.Catalog.Work(r.Context(), chi.URLParam(r, "workID"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	vols, err := s.orchestrator.Catalog.Volumes(r.Context(), work.ID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"work": work, "volumes": vols})
}

func (s *Server) handleAddWork(w http.ResponseWriter, r *http.Request) {
	var work catalog.Work
	if !decodeBody(w, r, &work) {
		return
	}
	if err := work.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.orchestrator.AddWork(r.Context(), work); err != nil {
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusCreated, work)
}

type editWorkRequest struct {
	Title string `json:"title"`
	Abbr  string `json:"abbr"`
}

func (s *Server) handleEditWork(w http.ResponseWriter, r *http.Request) {
	var req editWorkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	workID := chi.URLParam(r, "workID")
	if _, err := s.orchestrator.Catalog.Work(r.Context(), workID); err != nil {
		s.storeError(w, err)
		return
	}
	work, err := s.orchestrator.EditWork(r.Context(), workID, req.Title, req.Abbr)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, work)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Chapter int `json:"chapter"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Chapter < 1 {
		jsonError(w, "chapter must be positive", http.StatusBadRequest)
		return
	}
	if err := s.orchestrator.MarkRead(r.Context(), chi.URLParam(r, "workID"), req.Chapter); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBookmark(on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, ok := chapterParam(w, r)
		if !ok {
			return
		}
		work, err := s.orchestrator.SetBookmark(r.Context(), chi.URLParam(r, "workID"), n, on)
		if err != nil {
			s.storeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookmarks": work.Bookmarks})
	}
}

// chapterParam reads the {n} path parameter, replying 400 when it is not
// a positive number.
func chapterParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		jsonError(w, "chapter must be a positive number", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/customtrans/internal/dictionary"
	"github.com/dgallion1/customtrans/internal/glossimport"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListGlossaries(w http.ResponseWriter, r *http.Request) {
	list, err := s.orchestrator.ListGlossaries(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"glossaries": list})
}

func (s *Server) handleGetGlossary(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	src, err := s.orchestrator.Glossaries.Read(name)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if !src.Present {
		jsonError(w, fmt.Sprintf("glossary %s not found", name), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, src.Text)
}

// readText reads a glossary body, bounded by the upload limit.
func (s *Server) readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return "", false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return "", false
	}
	return string(data), true
}

func (s *Server) handleSaveGlossary(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readText(w, r)
	if !ok {
		return
	}
	report, err := s.orchestrator.SaveGlossary(r.Context(), chi.URLParam(r, "name"), text)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCheckGlossary(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readText(w, r)
	if !ok {
		return
	}
	report, err := s.orchestrator.CheckGlossary(r.Context(), chi.URLParam(r, "name"), text)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleImportGlossary(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !glossimport.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	if header.Size > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	report, err := s.orchestrator.ImportGlossary(r.Context(), chi.URLParam(r, "name"), filename, file)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type enabledRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleGlossaryEnabled(w http.ResponseWriter, r *http.Request) {
	var req enabledRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.orchestrator.SetGlossaryEnabled(r.Context(), chi.URLParam(r, "name"), req.Enabled); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListHonorifics(w http.ResponseWriter, r *http.Request) {
	rules, err := s.orchestrator.Catalog.Honorifics(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"honorifics": rules})
}

func (s *Server) handlePutHonorific(w http.ResponseWriter, r *http.Request) {
	var rule dictionary.Rule
	if !decodeBody(w, r, &rule) {
		return
	}
	rule.ID = chi.URLParam(r, "id")
	if err := rule.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.orchestrator.PutHonorific(r.Context(), rule); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteHonorific(w http.ResponseWriter, r *http.Request) {
	if err := s.orchestrator.DeleteHonorific(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHonorificEnabled(w http.ResponseWriter, r *http.Request) {
	var req enabledRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.orchestrator.SetHonorificEnabled(r.Context(), chi.URLParam(r, "id"), req.Enabled); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	if name == "" || name == "." || name == "/" {
		name = "upload.txt"
	}
	return name
}

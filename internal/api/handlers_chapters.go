package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/dgallion1/customtrans/internal/pipeline"
	"github.com/dgallion1/customtrans/internal/render"
	"github.com/go-chi/chi/v5"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// handleChapter serves a rendered chapter as JSON (default), HTML or a
// Word document, picked by the format query parameter. An unavailable
// chapter is still a 200 for JSON and HTML: the artifact carries the
// notice.
func (s *Server) handleChapter(w http.ResponseWriter, r *http.Request) {
	n, ok := chapterParam(w, r)
	if !ok {
		return
	}
	workID := chi.URLParam(r, "workID")
	ctx := r.Context()

	switch format := r.URL.Query().Get("format"); format {
	case "", "json", "html":
		a, err := s.orchestrator.Chapter(ctx, workID, n)
		if err != nil {
			s.chapterError(w, err)
			return
		}
		if format != "html" {
			writeJSON(w, http.StatusOK, a)
			return
		}
		var buf bytes.Buffer
		if err := render.WriteHTML(&buf, a); err != nil {
			s.chapterError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())

	case "docx":
		var buf bytes.Buffer
		if err := s.orchestrator.ExportChapter(ctx, workID, n, &buf); err != nil {
			s.chapterError(w, err)
			return
		}
		w.Header().Set("Content-Type", docxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_%d.docx"`, workID, n))
		w.Write(buf.Bytes())

	default:
		jsonError(w, fmt.Sprintf("unknown format %q (want json, html or docx)", format), http.StatusBadRequest)
	}
}

func (s *Server) chapterError(w http.ResponseWriter, err error) {
	if errors.Is(err, pipeline.ErrUnavailable) {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	s.storeError(w, err)
}

func (s *Server) handleInvalidateChapter(w http.ResponseWriter, r *http.Request) {
	n, ok := chapterParam(w, r)
	if !ok {
		return
	}
	s.orchestrator.InvalidateChapter(chi.URLParam(r, "workID"), n)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInvalidateWork(w http.ResponseWriter, r *http.Request) {
	s.orchestrator.InvalidateWork(chi.URLParam(r, "workID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInvalidateAll(w http.ResponseWriter, r *http.Request) {
	s.orchestrator.InvalidateAll()
	w.WriteHeader(http.StatusNoContent)
}

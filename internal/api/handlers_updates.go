package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type updateRequest struct {
	WorkIDs []string `json:"work_ids"`
}

// handleSubmitUpdate queues an update job. An empty body or work list
// updates every work.
func (s *Server) handleSubmitUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	for _, id := range req.WorkIDs {
		if _, err := s.orchestrator.Catalog.Work(r.Context(), id); err != nil {
			s.storeError(w, err)
			return
		}
	}

	job, err := s.orchestrator.SubmitUpdate(r.Context(), req.WorkIDs)
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   job.Snapshot().Status,
		"poll_url": fmt.Sprintf("/api/updates/%s", job.ID),
	})
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

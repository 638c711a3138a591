package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"recvault/internal/server/services"
)

type createRecordingRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ProjectID   *string `json:"projectId"`
	Duration    float64 `json:"duration"`
	FileSize    int64   `json:"fileSize"`
}

type updateRecordingRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"isPublic"`
	ProjectID   *string `json:"projectId"`
}

type addAnnotationRequest struct {
	Timestamp float64 `json:"timestamp"`
	Text      string  `json:"text"`
	Kind      string  `json:"kind"`
}

func (s *Server) handleCreateRecording(w http.ResponseWriter, r *http.Request) {
	var req createRecordingRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.Title == "" {
		badRequest(w, "title is required")
		return
	}

	rec, err := s.recordings.Create(r.Context(), accountFrom(r.Context()), services.CreateRecordingRequest{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   req.ProjectID,
		Duration:    req.Duration,
		FileSize:    req.FileSize,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordingJSON(rec))
}

func (s *Server) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	list, pagination, err := s.recordings.ListOwned(r.Context(), accountFrom(r.Context()), services.ListRecordingsRequest{
		ProjectID: q.Get("projectId"),
		Search:    q.Get("search"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]recordingJSON, 0, len(list))
	for _, rec := range list {
		out = append(out, toRecordingJSON(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"recordings": out,
		"pagination": toPaginationJSON(pagination),
	})
}

func (s *Server) handleGetRecording(w http.ResponseWriter, r *http.Request) {
	rec, err := s.recordings.GetOwned(r.Context(), accountFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordingJSON(rec))
}

func (s *Server) handleUpdateRecording(w http.ResponseWriter, r *http.Request) {
	var req updateRecordingRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}

	rec, err := s.recordings.Update(r.Context(), accountFrom(r.Context()), chi.URLParam(r, "id"), services.UpdateRecordingRequest{
		Title:       req.Title,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		ProjectID:   req.ProjectID,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordingJSON(rec))
}

func (s *Server) handleDeleteRecording(w http.ResponseWriter, r *http.Request) {
	if err := s.recordings.Delete(r.Context(), accountFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "recording deleted"})
}

func (s *Server) handleAddAnnotation(w http.ResponseWriter, r *http.Request) {
	var req addAnnotationRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.Text == "" {
		badRequest(w, "text is required")
		return
	}

	ann, err := s.recordings.AddAnnotation(r.Context(), accountFrom(r.Context()), chi.URLParam(r, "id"), req.Timestamp, req.Text, req.Kind)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAnnotationJSON(ann))
}

func (s *Server) handleGetShared(w http.ResponseWriter, r *http.Request) {
	shared, err := s.recordings.GetShared(r.Context(), chi.URLParam(r, "shareToken"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSharedRecordingJSON(shared))
}

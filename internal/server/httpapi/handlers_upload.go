package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"recvault/internal/server/services"
)

type reserveUploadRequest struct {
	FileName    string `json:"fileName"`
	FileType    string `json:"fileType"`
	FileSize    int64  `json:"fileSize"`
	RecordingID string `json:"recordingId"`
}

type confirmUploadRequest struct {
	RecordingID string  `json:"recordingId"`
	FileKey     string  `json:"fileKey"`
	FileSize    int64   `json:"fileSize"`
	Duration    float64 `json:"duration"`
}

func (s *Server) handleReserveUpload(w http.ResponseWriter, r *http.Request) {
	var req reserveUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.FileName == "" || req.RecordingID == "" {
		badRequest(w, "fileName and recordingId are required")
		return
	}
	if req.FileSize < 0 {
		badRequest(w, "fileSize must not be negative")
		return
	}

	ticket, err := s.uploads.Reserve(r.Context(), accountFrom(r.Context()), services.ReserveRequest{
		FileName:    req.FileName,
		FileType:    req.FileType,
		FileSize:    req.FileSize,
		RecordingID: req.RecordingID,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"uploadUrl": ticket.UploadURL,
		"fileKey":   ticket.FileKey,
		"expiresIn": ticket.ExpiresIn,
	})
}

func (s *Server) handleConfirmUpload(w http.ResponseWriter, r *http.Request) {
	var req confirmUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.RecordingID == "" || req.FileKey == "" {
		badRequest(w, "recordingId and fileKey are required")
		return
	}
	if req.FileSize < 0 {
		badRequest(w, "fileSize must not be negative")
		return
	}

	rec, err := s.uploads.Confirm(r.Context(), accountFrom(r.Context()), services.ConfirmRequest{
		RecordingID: req.RecordingID,
		FileKey:     req.FileKey,
		FileSize:    req.FileSize,
		Duration:    req.Duration,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordingJSON(rec))
}

func (s *Server) handleViewCapability(w http.ResponseWriter, r *http.Request) {
	ticket, err := s.uploads.ViewCapability(r.Context(), chi.URLParam(r, "recordingID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"viewUrl":   ticket.ViewURL,
		"expiresIn": ticket.ExpiresIn,
	})
}

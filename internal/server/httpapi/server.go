// Package httpapi exposes the service over HTTP/JSON: authentication,
// API key management, recording CRUD, the public share path, and the
// presigned-URL upload endpoints.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"recvault/internal/logging"
	"recvault/internal/server/models"
	"recvault/internal/server/services"
)

// CredentialResolver authenticates one request's credential material.
type CredentialResolver interface {
	Resolve(ctx context.Context, creds services.Credentials) (*models.Account, error)
}

// AccountService is the slice of the account service the API uses.
type AccountService interface {
	Register(ctx context.Context, email, password, name string) (*models.Account, *services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*models.Account, *services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	CreateAPIKey(ctx context.Context, account *models.Account, name string) (*models.ApiKey, error)
	ListAPIKeys(ctx context.Context, account *models.Account) ([]*models.ApiKey, error)
}

// RecordingService is the metadata gateway the API fronts.
type RecordingService interface {
	Create(ctx context.Context, account *models.Account, req services.CreateRecordingRequest) (*models.Recording, error)
	GetOwned(ctx context.Context, account *models.Account, id string) (*models.Recording, error)
	ListOwned(ctx context.Context, account *models.Account, req services.ListRecordingsRequest) ([]*models.Recording, *services.Pagination, error)
	Update(ctx context.Context, account *models.Account, id string, req services.UpdateRecordingRequest) (*models.Recording, error)
	Delete(ctx context.Context, account *models.Account, id string) error
	GetShared(ctx context.Context, shareToken string) (*models.SharedRecording, error)
	AddAnnotation(ctx context.Context, account *models.Account, recordingID string, timestamp float64, text, kind string) (*models.Annotation, error)
}

// UploadService is the upload coordinator the API fronts.
type UploadService interface {
	Reserve(ctx context.Context, account *models.Account, req services.ReserveRequest) (*models.UploadTicket, error)
	Confirm(ctx context.Context, account *models.Account, req services.ConfirmRequest) (*models.Recording, error)
	ViewCapability(ctx context.Context, recordingID string) (*models.ViewTicket, error)
}

// Server holds the API dependencies and builds the router.
type Server struct {
	logger     logging.Logger
	resolver   CredentialResolver
	accounts   AccountService
	recordings RecordingService
	uploads    UploadService
}

// NewServer constructs a Server over the given services.
func NewServer(logger logging.Logger, resolver CredentialResolver, accounts AccountService, recordings RecordingService, uploads UploadService) *Server {
	return &Server{
		logger:     logger,
		resolver:   resolver,
		accounts:   accounts,
		recordings: recordings,
		uploads:    uploads,
	}
}

// Router assembles the chi route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { notFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)

		// Public paths: the share token and the recording id act as the
		// credential here.
		r.Get("/recordings/share/{shareToken}", s.handleGetShared)
		r.Get("/upload/view/{recordingID}", s.handleViewCapability)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAccount)

			r.Get("/keys", s.handleListAPIKeys)
			r.Post("/keys", s.handleCreateAPIKey)

			r.Get("/recordings", s.handleListRecordings)
			r.Post("/recordings", s.handleCreateRecording)
			r.Get("/recordings/{id}", s.handleGetRecording)
			r.Patch("/recordings/{id}", s.handleUpdateRecording)
			r.Delete("/recordings/{id}", s.handleDeleteRecording)
			r.Post("/recordings/{id}/annotations", s.handleAddAnnotation)

			r.Post("/upload/presigned-url", s.handleReserveUpload)
			r.Post("/upload/confirm", s.handleConfirmUpload)
		})
	})

	return r
}

package httpapi

import (
	"time"

	"recvault/internal/server/models"
	"recvault/internal/server/services"
)

// JSON projections of the domain models. Field names follow the wire
// contract, not the Go structs.

type accountJSON struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Avatar      string    `json:"avatar,omitempty"`
	Plan        string    `json:"plan"`
	StorageUsed string    `json:"storageUsed"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toAccountJSON(a *models.Account) accountJSON {
	used := "0"
	if a.StorageUsed != nil {
		used = a.StorageUsed.String()
	}
	return accountJSON{
		ID:          a.ID,
		Email:       a.Email,
		Name:        a.Name,
		Avatar:      a.Avatar,
		Plan:        string(a.Plan),
		StorageUsed: used,
		CreatedAt:   a.CreatedAt,
	}
}

// apiKeyJSON carries the key secret only when it was just minted; listings
// leave it empty.
type apiKeyJSON struct {
	ID        string     `json:"id"`
	Key       string     `json:"key,omitempty"`
	Name      string     `json:"name"`
	LastUsed  *time.Time `json:"lastUsed"`
	CreatedAt time.Time  `json:"createdAt"`
}

func toAPIKeyJSON(k *models.ApiKey, includeSecret bool) apiKeyJSON {
	out := apiKeyJSON{
		ID:        k.ID,
		Name:      k.Name,
		LastUsed:  k.LastUsed,
		CreatedAt: k.CreatedAt,
	}
	if includeSecret {
		out.Key = k.Key
	}
	return out
}

type projectJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type annotationJSON struct {
	ID        string    `json:"id"`
	Timestamp float64   `json:"timestamp"`
	Text      string    `json:"text"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

func toAnnotationJSON(a *models.Annotation) annotationJSON {
	return annotationJSON{
		ID:        a.ID,
		Timestamp: a.Timestamp,
		Text:      a.Text,
		Kind:      a.Kind,
		CreatedAt: a.CreatedAt,
	}
}

type recordingJSON struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Status      string           `json:"status"`
	FileSize    int64            `json:"fileSize"`
	Duration    float64          `json:"duration"`
	VideoURL    string           `json:"videoUrl,omitempty"`
	IsPublic    bool             `json:"isPublic"`
	ShareToken  string           `json:"shareToken"`
	Views       int64            `json:"views"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	Project     *projectJSON     `json:"project,omitempty"`
	Annotations []annotationJSON `json:"annotations,omitempty"`
}

func toRecordingJSON(rec *models.Recording) recordingJSON {
	out := recordingJSON{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Status:      string(rec.Status),
		FileSize:    rec.FileSize,
		Duration:    rec.Duration,
		VideoURL:    rec.VideoURL,
		IsPublic:    rec.IsPublic,
		ShareToken:  rec.ShareToken,
		Views:       rec.Views,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	if rec.Project != nil {
		out.Project = &projectJSON{ID: rec.Project.ID, Name: rec.Project.Name}
	}
	for _, a := range rec.Annotations {
		out.Annotations = append(out.Annotations, toAnnotationJSON(a))
	}
	return out
}

// sharedOwnerJSON is the public-safe owner projection: display fields only.
type sharedOwnerJSON struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type sharedRecordingJSON struct {
	recordingJSON
	User sharedOwnerJSON `json:"user"`
}

func toSharedRecordingJSON(shared *models.SharedRecording) sharedRecordingJSON {
	return sharedRecordingJSON{
		recordingJSON: toRecordingJSON(shared.Recording),
		User:          sharedOwnerJSON{Name: shared.OwnerName, Avatar: shared.OwnerAvatar},
	}
}

type paginationJSON struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func toPaginationJSON(p *services.Pagination) paginationJSON {
	return paginationJSON{Page: p.Page, Limit: p.Limit, Total: p.Total, Pages: p.Pages}
}

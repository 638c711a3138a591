package models

import "time"

// RecordingStatus is the upload lifecycle state of a recording.
type RecordingStatus string

const (
	// RecordingPending means metadata exists but no payload has been
	// confirmed in object storage yet.
	RecordingPending RecordingStatus = "PENDING"
	// RecordingReady means a payload upload was confirmed; VideoURL and
	// FileSize are set.
	RecordingReady RecordingStatus = "READY"
)

// ProjectRef is the minimal projection of a project joined for display.
type ProjectRef struct {
	ID   string
	Name string
}

// Recording is the metadata record for one screen/video recording. The
// binary payload lives in object storage at VideoURL; ShareToken grants
// public read access while IsPublic is true.
type Recording struct {
	ID          string
	AccountID   string
	ProjectID   *string
	Title       string
	Description string
	Status      RecordingStatus
	FileSize    int64
	Duration    float64
	VideoURL    string
	IsPublic    bool
	ShareToken  string
	Views       int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Project is populated on reads that join the projects table.
	Project *ProjectRef
	// Annotations is populated on detail reads, ordered by timestamp.
	Annotations []*Annotation
}

// SharedRecording is the public-safe view served on the share-token path:
// the recording plus display-only owner and project fields. No email,
// plan, or storage counters.
type SharedRecording struct {
	Recording   *Recording
	OwnerName   string
	OwnerAvatar string
}

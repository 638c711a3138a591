package models

import "time"

// Annotation is a timestamped note attached to one recording. Annotations
// are append-only: they are never updated or deleted on their own, and are
// removed together with their recording.
type Annotation struct {
	ID          string
	RecordingID string
	Timestamp   float64
	Text        string
	Kind        string
	CreatedAt   time.Time
}

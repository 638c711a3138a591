package models

import "time"

// ApiKey is a long-lived opaque credential tied to one account. The key
// value itself is the lookup handle; LastUsed is refreshed on every
// successful key authentication.
type ApiKey struct {
	ID        string
	Key       string
	Name      string
	AccountID string
	LastUsed  *time.Time
	CreatedAt time.Time
}

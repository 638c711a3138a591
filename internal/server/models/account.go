// Package models defines server-side data models persisted in the database.
package models

import (
	"math/big"
	"time"
)

// Plan is the subscription tier of an account. It determines the storage
// ceiling enforced by the quota ledger.
type Plan string

const (
	PlanFree Plan = "FREE"
	PlanPro  Plan = "PRO"
	PlanTeam Plan = "TEAM"
)

// Account is an authenticated principal owning recordings and API keys.
//
// StorageUsed is kept as a big.Int because cumulative byte counts are not
// bounded by a single object's size; it is mutated only through the quota
// ledger, never directly by request handlers.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Avatar       string
	Plan         Plan
	StorageUsed  *big.Int
	CreatedAt    time.Time
}

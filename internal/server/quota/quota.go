// Package quota tracks per-account storage consumption against fixed
// plan-derived ceilings.
//
// Admission is advisory: Admit only predicts whether a later charge would
// exceed the ceiling, and the gap between admission and the charge performed
// at upload confirmation is deliberately unreserved. Two concurrent uploads
// can both pass admission against stale usage; the quota is soft.
package quota

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	"recvault/internal/server/models"
	"recvault/internal/server/repositories/repomanager"
)

const gib = 1 << 30

// planCeilings maps each plan tier to its storage ceiling in bytes.
var planCeilings = map[models.Plan]*big.Int{
	models.PlanFree: big.NewInt(1 * gib),
	models.PlanPro:  big.NewInt(50 * gib),
	models.PlanTeam: big.NewInt(500 * gib),
}

// Ceiling returns the byte ceiling for a plan, or nil for an unknown plan.
func Ceiling(plan models.Plan) *big.Int {
	c, ok := planCeilings[plan]
	if !ok {
		return nil
	}
	return new(big.Int).Set(c)
}

// ExceededError reports a rejected admission, carrying the plan ceiling and
// the usage it was compared against for client display.
type ExceededError struct {
	Limit *big.Int
	Used  *big.Int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("storage limit exceeded: limit=%s used=%s", e.Limit, e.Used)
}

// Ledger adjusts the stored-storage counter of accounts. It is the only
// component allowed to mutate that counter.
type Ledger struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewLedger(db *sql.DB, repos repomanager.RepositoryManager) *Ledger {
	return &Ledger{db: db, repos: repos}
}

// Admit reports whether charging incoming bytes to the account would stay
// within its plan ceiling. It mutates nothing. All arithmetic uses big.Int:
// cumulative byte counts are not safe in native integer ranges.
func (l *Ledger) Admit(account *models.Account, incoming int64) error {
	ceiling := Ceiling(account.Plan)
	if ceiling == nil {
		return fmt.Errorf("unknown plan: %s", account.Plan)
	}

	next := new(big.Int).Add(account.StorageUsed, big.NewInt(incoming))
	if next.Cmp(ceiling) > 0 {
		return &ExceededError{
			Limit: ceiling,
			Used:  new(big.Int).Set(account.StorageUsed),
		}
	}
	return nil
}

// Charge durably adds bytes to the account's counter. Called exactly once
// per confirmed upload.
func (l *Ledger) Charge(ctx context.Context, accountID string, bytes int64) error {
	if err := l.repos.Accounts(l.db).AddStorageUsed(ctx, accountID, big.NewInt(bytes)); err != nil {
		return fmt.Errorf("quota charge: %w", err)
	}
	return nil
}

// Release subtracts bytes from the account's counter. Called exactly once
// per deletion of a confirmed recording, with that recording's recorded
// size. A release that would drive the counter negative fails loudly
// instead of clamping.
func (l *Ledger) Release(ctx context.Context, accountID string, bytes int64) error {
	if err := l.repos.Accounts(l.db).SubtractStorageUsed(ctx, accountID, big.NewInt(bytes)); err != nil {
		return fmt.Errorf("quota release: %w", err)
	}
	return nil
}

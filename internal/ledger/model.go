// Package ledger owns the locally-persisted expense ledger and keeps it
// reconciled with the remote record backend. Writes apply optimistically to
// local state first; remote effects are best-effort and never roll back what
// the caller already sees.
package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCategory is assigned to records created or fetched without one.
const DefaultCategory = "General"

// Record is a single monetary ledger entry. Its ID is either a
// client-generated local identifier or a backend-assigned remote identifier.
type Record struct {
	ID         string          `json:"id"`
	Label      string          `json:"label"`
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`
	Owner      string          `json:"owner,omitempty"`
}

// HasRemoteID reports whether the record has been confirmed by the backend
func (r Record) HasRemoteID() bool {
	return IsRemoteID(r.ID)
}

// Draft is the caller-supplied input for a new record
type Draft struct {
	Label      string
	Category   string
	Amount     decimal.Decimal
	OccurredAt time.Time
}

// Validate checks the draft before any state change or network call
func (d Draft) Validate() error {
	if !d.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Patch is a partial update to an existing record. Nil fields are untouched.
type Patch struct {
	Label    *string
	Category *string
	Amount   *decimal.Decimal
}

// Validate rejects a patch that would set a non-positive amount
func (p Patch) Validate() error {
	if p.Amount != nil && !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p.Label == nil && p.Category == nil && p.Amount == nil
}

func (p Patch) applyTo(r *Record) {
	if p.Label != nil {
		r.Label = *p.Label
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
}

// RemoteRow is a raw record row as returned by the backend, before
// normalization. Zero-valued fields mark columns the row did not carry.
type RemoteRow struct {
	ID         string
	Label      string
	Category   string
	Amount     decimal.Decimal
	Owner      string
	OccurredAt time.Time
	CreatedAt  time.Time
}

// Normalize converts a remote row into a Record, filling defaults the same
// way regardless of which backend produced the row.
func (row RemoteRow) Normalize(owner string) Record {
	rec := Record{
		ID:         row.ID,
		Label:      row.Label,
		Category:   row.Category,
		Amount:     row.Amount,
		OccurredAt: row.OccurredAt,
		Owner:      owner,
	}
	if rec.Category == "" {
		rec.Category = DefaultCategory
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = row.CreatedAt
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	return rec
}

// ParseAmount parses a caller-supplied amount string into a positive decimal.
// Rejects anything that is not a finite number greater than zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// SumAmounts returns the total of all record amounts
func SumAmounts(records []Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

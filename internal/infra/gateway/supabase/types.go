package supabase

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kislikjeka/safewallet/internal/ledger"
)

// expenseRow mirrors one row of the expenses table as PostgREST returns it.
// Nullable columns are pointers so absent values survive the trip.
type expenseRow struct {
	ID        string           `json:"id"`
	Title     *string          `json:"title"`
	Category  *string          `json:"category"`
	Amount    *decimal.Decimal `json:"amount"`
	OwnerID   *string          `json:"owner_id"`
	Date      *time.Time       `json:"date"`
	CreatedAt *time.Time       `json:"created_at"`
}

// toRemoteRow converts the raw row into the backend-neutral shape the engine
// normalizes.
func (r expenseRow) toRemoteRow() ledger.RemoteRow {
	row := ledger.RemoteRow{ID: r.ID}
	if r.Title != nil {
		row.Label = *r.Title
	}
	if r.Category != nil {
		row.Category = *r.Category
	}
	if r.Amount != nil {
		row.Amount = *r.Amount
	}
	if r.OwnerID != nil {
		row.Owner = *r.OwnerID
	}
	if r.Date != nil {
		row.OccurredAt = *r.Date
	}
	if r.CreatedAt != nil {
		row.CreatedAt = *r.CreatedAt
	}
	return row
}

// insertPayload is the body for an expense insert
type insertPayload struct {
	Title    string          `json:"title"`
	Category string          `json:"category,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Date     string          `json:"date,omitempty"`
	OwnerID  string          `json:"owner_id,omitempty"`
}

// profileRow mirrors the budget column of the users table
type profileRow struct {
	ID     string           `json:"id,omitempty"`
	Budget *decimal.Decimal `json:"budget"`
}

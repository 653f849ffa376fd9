package ledger_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/safewallet/internal/ledger"
)

func TestNewLocalID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := ledger.NewLocalID()
		assert.True(t, ledger.IsLocalID(id))
		assert.False(t, ledger.IsRemoteID(id), "local id %q must never look remote", id)
		assert.False(t, seen[id], "duplicate local id %q", id)
		seen[id] = true
	}
}

func TestIsRemoteID(t *testing.T) {
	valid := uuid.NewString()

	tests := []struct {
		name     string
		id       string
		expected bool
	}{
		{"canonical uuid", valid, true},
		{"local id", ledger.NewLocalID(), false},
		{"empty", "", false},
		{"nil uuid", "00000000-0000-0000-0000-000000000000", false},
		{"uppercase uuid", "6BA7B810-9DAD-11D1-80B4-00C04FD430C8", true},
		{"urn form rejected", "urn:uuid:" + valid, false},
		{"braced form rejected", "{" + valid + "}", false},
		{"hex without dashes rejected", "6ba7b8109dad11d180b400c04fd430c8", false},
		{"arbitrary string", "expense-42", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ledger.IsRemoteID(tt.id))
		})
	}
}

func TestRemoteRow_Normalize(t *testing.T) {
	created := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	occurred := time.Date(2025, 11, 19, 8, 0, 0, 0, time.UTC)

	t.Run("defaults fill missing fields", func(t *testing.T) {
		row := ledger.RemoteRow{
			ID:        uuid.NewString(),
			Amount:    decimal.RequireFromString("12.5"),
			CreatedAt: created,
		}
		rec := row.Normalize("user-1")
		assert.Equal(t, "", rec.Label)
		assert.Equal(t, ledger.DefaultCategory, rec.Category)
		assert.Equal(t, created, rec.OccurredAt)
		assert.Equal(t, "user-1", rec.Owner)
	})

	t.Run("explicit fields survive", func(t *testing.T) {
		row := ledger.RemoteRow{
			ID:         uuid.NewString(),
			Label:      "Bus",
			Category:   "Transport",
			Amount:     decimal.RequireFromString("25"),
			OccurredAt: occurred,
			CreatedAt:  created,
		}
		rec := row.Normalize("user-1")
		assert.Equal(t, "Bus", rec.Label)
		assert.Equal(t, "Transport", rec.Category)
		assert.Equal(t, occurred, rec.OccurredAt)
	})

	t.Run("no timestamps at all falls back to now", func(t *testing.T) {
		row := ledger.RemoteRow{ID: uuid.NewString(), Amount: decimal.RequireFromString("1")}
		rec := row.Normalize("user-1")
		assert.False(t, rec.OccurredAt.IsZero())
	})
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"150", "150", false},
		{" 12.50 ", "12.5", false},
		{"0.01", "0.01", false},
		{"0", "", true},
		{"-5", "", true},
		{"", "", true},
		{"abc", "", true},
		{"1,5", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ledger.ParseAmount(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestGuard_Check(t *testing.T) {
	ceiling := decimal.RequireFromString("200")

	t.Run("nil ceiling passes everything", func(t *testing.T) {
		g := ledger.Guard{}
		assert.NoError(t, g.Check(decimal.RequireFromString("1000000"), decimal.RequireFromString("1000000")))
	})

	t.Run("within budget passes", func(t *testing.T) {
		g := ledger.Guard{Ceiling: &ceiling}
		assert.NoError(t, g.Check(decimal.RequireFromString("100"), decimal.RequireFromString("50")))
	})

	t.Run("exactly at ceiling passes", func(t *testing.T) {
		g := ledger.Guard{Ceiling: &ceiling}
		assert.NoError(t, g.Check(decimal.RequireFromString("100"), decimal.RequireFromString("100")))
	})

	t.Run("over ceiling rejects with remaining", func(t *testing.T) {
		g := ledger.Guard{Ceiling: &ceiling}
		err := g.Check(decimal.RequireFromString("100"), decimal.RequireFromString("150"))
		require.Error(t, err)

		var ceilingErr *ledger.CeilingExceededError
		require.ErrorAs(t, err, &ceilingErr)
		assert.True(t, ceilingErr.Remaining.Equal(decimal.RequireFromString("100")))
	})

	t.Run("remaining is clamped at zero when already over", func(t *testing.T) {
		g := ledger.Guard{Ceiling: &ceiling}
		err := g.Check(decimal.RequireFromString("250"), decimal.RequireFromString("1"))
		var ceilingErr *ledger.CeilingExceededError
		require.ErrorAs(t, err, &ceilingErr)
		assert.True(t, ceilingErr.Remaining.IsZero())
	})
}

func TestSumAmounts(t *testing.T) {
	records := []ledger.Record{
		{Amount: decimal.RequireFromString("0.1")},
		{Amount: decimal.RequireFromString("0.2")},
	}
	// decimal arithmetic: no float drift
	assert.True(t, ledger.SumAmounts(records).Equal(decimal.RequireFromString("0.3")))
	assert.True(t, ledger.SumAmounts(nil).IsZero())
}

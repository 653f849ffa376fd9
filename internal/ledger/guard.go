package ledger

import "github.com/shopspring/decimal"

// Guard evaluates the budget ceiling precondition for a prospective write.
// A nil ceiling means no limit is configured and every write passes.
type Guard struct {
	Ceiling *decimal.Decimal
}

// Check rejects the write when the current total plus the new amount would
// exceed the ceiling. This is a hard precondition: on rejection nothing has
// been mutated and no network call is made.
func (g Guard) Check(total, amount decimal.Decimal) error {
	if g.Ceiling == nil {
		return nil
	}

	projected := total.Add(amount)
	if projected.GreaterThan(*g.Ceiling) {
		remaining := g.Ceiling.Sub(total)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		return &CeilingExceededError{Remaining: remaining}
	}
	return nil
}

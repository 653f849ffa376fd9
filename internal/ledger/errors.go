package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Validation errors. These are the only failures that prevent an operation
// outright; remote failures degrade to local-only effect instead.
var (
	ErrInvalidAmount  = errors.New("amount must be greater than zero")
	ErrInvalidCeiling = errors.New("ceiling cannot be negative")
)

// CeilingExceededError rejects a write whose projected total would exceed
// the configured ceiling. Remaining carries how much budget is left so the
// caller can surface it.
type CeilingExceededError struct {
	Remaining decimal.Decimal
}

func (e *CeilingExceededError) Error() string {
	return fmt.Sprintf("expense exceeds remaining budget of %s", e.Remaining.String())
}

// IsCeilingExceeded reports whether err is a budget rejection
func IsCeilingExceeded(err error) bool {
	var ceilingErr *CeilingExceededError
	return errors.As(err, &ceilingErr)
}

package orders

import (
	"errors"
	"fmt"

	"github.com/odyssey-erp/storefront/internal/shared"
)

var (
	// ErrOrderNotPlaced wraps every failure that aborted a placement. The
	// underlying cause stays reachable through errors.Is and errors.As.
	ErrOrderNotPlaced = errors.New("order not placed")
	// ErrDuplicateOrder reports a replayed idempotency key.
	ErrDuplicateOrder = fmt.Errorf("%w: order already placed for this idempotency key", shared.ErrDuplicate)
)

// InsufficientStockError names the line whose product could not cover the
// requested quantity.
type InsufficientStockError struct {
	ProductID int64
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (requested %d)", e.ProductID, e.Requested)
}

// Is lets callers treat a shortfall as a generic conflict.
func (e *InsufficientStockError) Is(target error) bool {
	return target == shared.ErrConflict
}

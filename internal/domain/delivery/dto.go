// internal/domain/delivery/dto.go
package delivery

import (
	"time"

	"github.com/shopspring/decimal"
)

type SkipResult struct {
	EntryID      int64            `json:"entry_id"`
	NewStatus    Status           `json:"new_status"`
	RefundAmount *decimal.Decimal `json:"refund_amount,omitempty"`
}

type MarkDeliveredRequest struct {
	Channel FulfillmentChannel `json:"channel" binding:"omitempty,oneof=doorstep pickup locker"`
}

type StatusReasonRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

type ManifestFilters struct {
	Date   string  `form:"date" binding:"required,datetime=2006-01-02"`
	Status *Status `form:"status"`
}

// Transition is a guarded status change applied as one conditional update.
// The entry must be PENDING; CustomerID, After and NotAfter narrow the guard.
type Transition struct {
	EntryID    int64
	To         Status
	CustomerID int64
	After      *time.Time
	NotAfter   *time.Time
	Reason     string
	Channel    FulfillmentChannel
}

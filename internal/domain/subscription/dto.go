// internal/domain/subscription/dto.go
package subscription

import (
	"time"

	"dairy-subscription-service/internal/domain/pricing"
	"dairy-subscription-service/internal/domain/schedule"

	"github.com/shopspring/decimal"
)

// SelectionRequest is one variant of a checkout. A product without variants
// is sent as a single selection of its default variant.
type SelectionRequest struct {
	VariantID   int64                `json:"variant_id" binding:"required,gt=0" validate:"required,gt=0"`
	Quantity    int                  `json:"quantity" binding:"required,min=1,max=99" validate:"required,min=1,max=99"`
	AltQuantity *int                 `json:"alt_quantity" binding:"omitempty,min=1,max=99" validate:"omitempty,min=1,max=99"`
	Pattern     schedule.PatternKind `json:"pattern" binding:"required,oneof=DAILY ALTERNATE_DAYS DAY1_DAY2 SELECT_DAYS" validate:"required,oneof=DAILY ALTERNATE_DAYS DAY1_DAY2 SELECT_DAYS"`
	Weekdays    []int                `json:"weekdays" binding:"omitempty,dive,min=0,max=6" validate:"omitempty,dive,min=0,max=6"`
}

type CheckoutRequest struct {
	Selections        []SelectionRequest `json:"selections" binding:"required,min=1,dive" validate:"required,min=1,dive"`
	PeriodDays        int                `json:"period_days" binding:"required" validate:"required"`
	StartDate         string             `json:"start_date" binding:"required,datetime=2006-01-02" validate:"required,datetime=2006-01-02"`
	UseWallet         bool               `json:"use_wallet"`
	DeliveryAddressID int64              `json:"delivery_address_id"`

	// AdjustPattern downgrades patterns the period no longer offers to DAILY
	// instead of rejecting them.
	AdjustPattern bool `json:"adjust_pattern"`
}

type QuoteLine struct {
	VariantID       int64                `json:"variant_id"`
	PeriodDays      int                  `json:"period_days"`
	Pattern         schedule.PatternKind `json:"pattern"`
	PatternAdjusted bool                 `json:"pattern_adjusted"`
	Quantity        int                  `json:"quantity"`
	AltQuantity     *int                 `json:"alt_quantity,omitempty"`
	Weekdays        []int                `json:"weekdays,omitempty"`

	DeliveryCount       int                        `json:"delivery_count"`
	DeliveryDescription string                     `json:"delivery_description"`
	Deliveries          []schedule.PlannedDelivery `json:"deliveries"`

	UnitPrice decimal.Decimal  `json:"unit_price"`
	MRP       *decimal.Decimal `json:"mrp,omitempty"`
	pricing.Totals
}

// Quote is the display output of a checkout.
type Quote struct {
	Lines     []QuoteLine `json:"lines"`
	StartDate time.Time   `json:"start_date"`
	EndDate   time.Time   `json:"end_date"`
	Currency  string      `json:"currency"`

	pricing.Totals
	WalletBalance decimal.Decimal `json:"wallet_balance"`
	pricing.WalletApplication

	DeliveryDescription string `json:"delivery_description"`
}

type ConfirmedSubscription struct {
	ID                    int64                `json:"id"`
	SubscriptionReference string               `json:"subscription_reference"`
	VariantID             int64                `json:"variant_id"`
	Period                int                  `json:"period"`
	StartDate             string               `json:"start_date"`
	DeliverySchedule      schedule.PatternKind `json:"delivery_schedule"`
	Qty                   int                  `json:"qty"`
	AltQty                *int                 `json:"alt_qty,omitempty"`
	Weekdays              []int                `json:"weekdays,omitempty"`
	DeliveryCount         int                  `json:"delivery_count"`
	TotalAmount           decimal.Decimal      `json:"total_amount"`
}

// Confirmation is the checkout confirmation output.
type Confirmation struct {
	CheckoutReference string                  `json:"checkout_reference"`
	Subscriptions     []ConfirmedSubscription `json:"subscriptions"`
	DeliveryAddressID int64                   `json:"delivery_address_id"`
	WalletAmount      decimal.Decimal         `json:"wallet_amount"`
	AmountPayable     decimal.Decimal         `json:"amount_payable"`
	PaymentStatus     PaymentStatus           `json:"payment_status"`
}

type BuyOnceItem struct {
	VariantID int64 `json:"variant_id" binding:"required,gt=0" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"required,min=1,max=99" validate:"required,min=1,max=99"`
}

type BuyOnceRequest struct {
	Items     []BuyOnceItem `json:"items" binding:"required,min=1,dive" validate:"required,min=1,dive"`
	UseWallet bool          `json:"use_wallet"`
}

type BuyOnceLine struct {
	VariantID int64            `json:"variant_id"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	MRP       *decimal.Decimal `json:"mrp,omitempty"`
	pricing.Totals
}

type BuyOnceQuote struct {
	Lines    []BuyOnceLine `json:"lines"`
	Currency string        `json:"currency"`
	pricing.Totals
	WalletBalance decimal.Decimal `json:"wallet_balance"`
	pricing.WalletApplication
}

type SubscriptionListFilters struct {
	PaymentStatus *PaymentStatus `form:"payment_status"`
	ActiveOn      string         `form:"active_on" binding:"omitempty,datetime=2006-01-02"`
	Page          int            `form:"page" binding:"omitempty,min=1"`
	PageSize      int            `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type SubscriptionListResponse struct {
	Subscriptions []Subscription `json:"subscriptions"`
	Total         int64          `json:"total"`
	Page          int            `json:"page"`
	PageSize      int            `json:"page_size"`
	TotalPages    int            `json:"total_pages"`
}

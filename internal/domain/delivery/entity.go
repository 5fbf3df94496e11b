// internal/domain/delivery/entity.go
package delivery

import (
	"database/sql"
	"time"
)

type Status string

const (
	StatusPending      Status = "PENDING"
	StatusDelivered    Status = "DELIVERED"
	StatusNotDelivered Status = "NOT_DELIVERED"
	StatusCancelled    Status = "CANCELLED"
	StatusSkipped      Status = "SKIPPED"
)

// DisplayLabel is what the storefront shows. It is derived, never stored.
type DisplayLabel string

const (
	LabelScheduled DisplayLabel = "SCHEDULED"
)

type FulfillmentChannel string

const (
	ChannelDoorstep FulfillmentChannel = "doorstep"
	ChannelPickup   FulfillmentChannel = "pickup"
	ChannelLocker   FulfillmentChannel = "locker"
)

// Entry is one dated delivery obligation of a subscription.
type Entry struct {
	ID             int64 `json:"id" db:"id"`
	SubscriptionID int64 `json:"subscription_id" db:"subscription_id"`
	CustomerID     int64 `json:"customer_id" db:"customer_id"`
	VariantID      int64 `json:"variant_id" db:"variant_id"`

	DeliveryDate time.Time `json:"delivery_date" db:"delivery_date"`
	Quantity     int       `json:"quantity" db:"quantity"`

	Status             Status         `json:"status" db:"status"`
	FulfillmentChannel sql.NullString `json:"fulfillment_channel,omitempty" db:"fulfillment_channel"`
	StatusReason       sql.NullString `json:"status_reason,omitempty" db:"status_reason"`
	StatusChangedAt    sql.NullTime   `json:"status_changed_at,omitempty" db:"status_changed_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EntryView pairs an entry with its display label for a given day.
type EntryView struct {
	Entry
	Display DisplayLabel `json:"display_status"`
}

type ManifestLine struct {
	EntryID           int64     `json:"entry_id"`
	SubscriptionID    int64     `json:"subscription_id"`
	CustomerID        int64     `json:"customer_id"`
	DeliveryAddressID int64     `json:"delivery_address_id"`
	VariantID         int64     `json:"variant_id"`
	Quantity          int       `json:"quantity"`
	DeliveryDate      time.Time `json:"delivery_date"`
	Status            Status    `json:"status"`
}

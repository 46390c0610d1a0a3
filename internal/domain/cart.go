package domain

import "time"

type SyncStatus string

const (
	SyncClean   SyncStatus = "clean"
	SyncDirty   SyncStatus = "dirty"
	SyncSyncing SyncStatus = "syncing"
	SyncFailed  SyncStatus = "failed"
)

// CartItem is a single line in a cart. PriceCents is the price snapshot
// captured when the line was added; it never tracks later catalog changes.
type CartItem struct {
	ProductID    string `json:"productId" validate:"required"`
	Name         string `json:"name" validate:"required"`
	PriceCents   int64  `json:"priceCents" validate:"gte=0"`
	Quantity     int    `json:"quantity" validate:"gte=1"`
	Category     string `json:"category"`
	ImageRef     string `json:"imageRef"`
	Size         string `json:"size"`
	RemoteLineID string `json:"remoteLineId,omitempty"`
}

// Cart is the server-side persisted cart. HeaderID is assigned once, on the
// first upsert for a shopper, and kept for the life of the cart.
type Cart struct {
	HeaderID  string     `json:"headerId"`
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type Order struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	HeaderID   string     `json:"headerId"`
	Items      []CartItem `json:"items"`
	TotalCents int64      `json:"totalCents"`
	PlacedAt   time.Time  `json:"placedAt"`
}

type UpsertCartRequest struct {
	HeaderID string     `json:"headerId"`
	UserID   string     `json:"userId" validate:"required"`
	Items    []CartItem `json:"items" validate:"dive"`
}

type UpsertCartResponse struct {
	IsSuccess bool       `json:"isSuccess"`
	Message   string     `json:"message,omitempty"`
	HeaderID  string     `json:"headerId,omitempty"`
	Items     []CartItem `json:"items,omitempty"`
}

type RemoveCartRequest struct {
	HeaderID string `json:"headerId" validate:"required"`
}

type StatusResponse struct {
	IsSuccess bool   `json:"isSuccess"`
	Message   string `json:"message,omitempty"`
}

type FetchCartResponse struct {
	IsSuccess bool   `json:"isSuccess"`
	Message   string `json:"message,omitempty"`
	Cart      *Cart  `json:"cart,omitempty"`
}

// CartTotal sums price snapshots over the given lines.
func CartTotal(items []CartItem) int64 {
	var total int64
	for _, it := range items {
		total += it.PriceCents * int64(it.Quantity)
	}
	return total
}

// CartUnits counts total units, not distinct lines.
func CartUnits(items []CartItem) int {
	var n int
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

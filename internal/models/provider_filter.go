package models

import "time"

// ProviderFilter is one subscription ledger row: at most one per
// (provider, filter) pair. The owner's row is created atomically with the
// filter and exists for the filter's entire lifetime.
type ProviderFilter struct {
	ID         int64     `db:"id" json:"id"`
	ProviderID int64     `db:"provider_id" json:"provider_id"`
	FilterID   int64     `db:"filter_id" json:"filter_id"`
	Active     bool      `db:"active" json:"active"`
	Notes      string    `db:"notes" json:"notes"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SubscriptionPatch updates the subscriber-controlled ledger fields.
type SubscriptionPatch struct {
	Active *bool   `json:"active,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

package models

import "time"

// Provider represents a content-serving entity identified by a hashed wallet
// address. Business metadata is optional and editable by the provider.
type Provider struct {
	ID            int64      `db:"id" json:"id"`
	WalletAddress string     `db:"wallet_address_hashed" json:"wallet_address_hashed"`
	Email         string     `db:"email" json:"email"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	BusinessName  string     `db:"business_name" json:"business_name"`
	Website       string     `db:"website" json:"website"`
	ContactPerson string     `db:"contact_person" json:"contact_person"`
	Address       string     `db:"address" json:"address"`
	Country       string     `db:"country" json:"country"`
	LastLogin     *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// ProviderConfig stores per-provider toggles. Deleted together with the
// provider in the account cascade.
type ProviderConfig struct {
	ID            int64     `db:"id" json:"id"`
	ProviderID    int64     `db:"provider_id" json:"provider_id"`
	Bitscreen     bool      `db:"bitscreen" json:"bitscreen"`
	ImportEnabled bool      `db:"import_enabled" json:"import_enabled"`
	ShareEnabled  bool      `db:"share_enabled" json:"share_enabled"`
	Safer         bool      `db:"safer" json:"safer"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

package models

import "time"

// DealStatus enumerates deal outcomes recorded for statistics.
type DealStatus string

const (
	DealStatusAccepted DealStatus = "ACCEPTED"
	DealStatusRejected DealStatus = "REJECTED"
)

// Deal records a retrieval decision made by a provider for a cid. Deals are
// consulted by the statistics collaborator and removed when the provider
// account is deleted.
type Deal struct {
	ID         int64      `db:"id" json:"id"`
	ProviderID int64      `db:"provider_id" json:"provider_id"`
	DealCid    string     `db:"deal_cid" json:"deal_cid"`
	Status     DealStatus `db:"status" json:"status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

package models

import "time"

// Visibility classifies who can discover a filter.
type Visibility int

const (
	VisibilityNone Visibility = iota
	VisibilityPrivate
	VisibilityPublic
	VisibilityThirdParty
)

// DirName returns the directory name used for this visibility class in
// account export archives.
func (v Visibility) DirName() string {
	switch v {
	case VisibilityPrivate:
		return "private"
	case VisibilityPublic:
		return "public"
	case VisibilityThirdParty:
		return "thirdparty"
	default:
		return "none"
	}
}

// Filter is a named, shareable collection of content identifiers.
type Filter struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description"`
	Override    bool       `db:"override" json:"override"`
	Visibility  Visibility `db:"visibility" json:"visibility"`
	ShareID     string     `db:"share_id" json:"share_id"`
	Enabled     bool       `db:"enabled" json:"enabled"`
	ProviderID  int64      `db:"provider_id" json:"provider_id"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// IsOrphan reports whether no subscriber other than the owner holds a ledger
// row for the filter. Every call site deciding orphan behaviour must go
// through this single test.
func (f *Filter) IsOrphan(ledger []ProviderFilter) bool {
	for _, row := range ledger {
		if row.ProviderID != f.ProviderID {
			return false
		}
	}
	return true
}

// FilterPatch applies a partial update to the mutable filter fields. Nil
// fields are left untouched; identifiers, subscribers and computed counts are
// never settable through a patch.
type FilterPatch struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	Override    *bool       `json:"override,omitempty"`
	Visibility  *Visibility `json:"visibility,omitempty"`
	Enabled     *bool       `json:"enabled,omitempty"`
}

// CidInput is an identifier entry supplied when creating a filter.
type CidInput struct {
	Cid    string `json:"cid" validate:"required"`
	RefURL string `json:"ref_url"`
}

// CreateFilterRequest is the payload for creating a filter list.
type CreateFilterRequest struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	Override    bool       `json:"override"`
	Visibility  Visibility `json:"visibility" validate:"min=0,max=3"`
	Enabled     *bool      `json:"enabled"`
	Cids        []CidInput `json:"cids" validate:"dive"`
}

// SortField is one field to direction pair of a sort specification.
type SortField struct {
	Field      string
	Descending bool
}

// PublicSearchParams drive the public catalog search.
type PublicSearchParams struct {
	ProviderID int64
	Query      string
	Sort       []SortField
	Page       int
	PerPage    int
}

// DashboardSearchParams drive the subscribed-filters search.
type DashboardSearchParams struct {
	ProviderID int64
	Query      string
	Sort       []SortField
	Page       int
	PerPage    int
}

// PublicFilterRow is a public search result annotated with computed columns.
type PublicFilterRow struct {
	Filter
	ProviderName    string `db:"business_name" json:"provider_name"`
	ProviderCountry string `db:"country" json:"provider_country"`
	CidsCount       int64  `db:"cids_count" json:"cids_count"`
	SubsCount       int64  `db:"subs_count" json:"subs_count"`
	IsImported      bool   `db:"is_imported" json:"is_imported"`
}

// DashboardFilterRow is a subscribed filter annotated with the requesting
// provider's own enablement flag.
type DashboardFilterRow struct {
	Filter
	SubscriptionActive bool   `db:"subscription_active" json:"subscription_active"`
	Notes              string `db:"notes" json:"notes"`
	CidsCount          int64  `db:"cids_count" json:"cids_count"`
	SubsCount          int64  `db:"subs_count" json:"subs_count"`
}

// DashboardStats aggregates provider-level rollups over the full
// (unpaged) subscribed set.
type DashboardStats struct {
	CurrentlyFiltering  int64 `json:"currently_filtering"`
	ExternalSubscribers int64 `json:"external_subscribers"`
	ActiveFilters       int64 `json:"active_filters"`
	InactiveFilters     int64 `json:"inactive_filters"`
	ImportedFilters     int64 `json:"imported_filters"`
	NoneFilters         int64 `json:"none_filters"`
	PrivateFilters      int64 `json:"private_filters"`
	PublicFilters       int64 `json:"public_filters"`
	ThirdPartyFilters   int64 `json:"thirdparty_filters"`
}

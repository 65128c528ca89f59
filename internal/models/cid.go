package models

import "time"

// Cid is a single content identifier entry belonging to exactly one filter.
type Cid struct {
	ID        int64     `db:"id" json:"id"`
	Cid       string    `db:"cid" json:"cid"`
	RefURL    string    `db:"ref_url" json:"ref_url"`
	FilterID  int64     `db:"filter_id" json:"filter_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ConflictCount carries the two independent overlap counts for a candidate
// identifier. Local counts the provider's own other filters containing a
// matching cid; remote counts filters the provider subscribes to but does not
// own. The caller decides policy from the two numbers.
type ConflictCount struct {
	Local  int64 `json:"local"`
	Remote int64 `json:"remote"`
}

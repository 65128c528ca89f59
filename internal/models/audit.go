package models

import (
	"encoding/json"
	"time"
)

// AuditLog records a successful mutating request.
type AuditLog struct {
	ID         int64           `db:"id" json:"id"`
	ProviderID *int64          `db:"provider_id" json:"provider_id,omitempty"`
	Action     string          `db:"action" json:"action"`
	Resource   string          `db:"resource" json:"resource"`
	ResourceID *string         `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  json.RawMessage `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string          `db:"ip_address" json:"ip_address"`
	UserAgent  string          `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

package models

import "time"

// ExportJobStatus tracks asynchronous export progress.
type ExportJobStatus string

const (
	ExportJobPending    ExportJobStatus = "PENDING"
	ExportJobProcessing ExportJobStatus = "PROCESSING"
	ExportJobCompleted  ExportJobStatus = "COMPLETED"
	ExportJobFailed     ExportJobStatus = "FAILED"
)

// ManifestFormat selects the rendering of a filter cid manifest.
type ManifestFormat string

const (
	ManifestFormatCSV ManifestFormat = "csv"
	ManifestFormatPDF ManifestFormat = "pdf"
)

// ExportJob describes a queued account export.
type ExportJob struct {
	ID           string          `json:"id"`
	ProviderID   int64           `json:"provider_id"`
	Status       ExportJobStatus `json:"status"`
	RelativePath string          `json:"-"`
	DownloadURL  string          `json:"download_url,omitempty"`
	Error        string          `json:"error,omitempty"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// AccountExportFilter is one archived filter record.
type AccountExportFilter struct {
	Filter Filter `json:"filter"`
	Cids   []Cid  `json:"cids"`
	Notes  string `json:"notes,omitempty"`
}

// AccountExport is the serializable form of a provider account archive.
// Owned filters are grouped by visibility-derived directory names and keyed
// by shareId-derived file names when written to the archive.
type AccountExport struct {
	Provider Provider              `json:"provider"`
	Config   *ProviderConfig       `json:"config,omitempty"`
	Owned    []AccountExportFilter `json:"-"`
	Imported []AccountExportFilter `json:"-"`
}

package service

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/filterhub/filterhub-api/internal/models"
	appErrors "github.com/filterhub/filterhub-api/pkg/errors"
	"github.com/filterhub/filterhub-api/pkg/export"
	"github.com/filterhub/filterhub-api/pkg/jobs"
	"github.com/filterhub/filterhub-api/pkg/storage"
)

const exportJobType = "account-export"

type exportFilterRepository interface {
	ListOwned(ctx context.Context, providerID int64) ([]models.Filter, error)
	FindOwned(ctx context.Context, id, providerID int64) (*models.Filter, error)
	ListDashboardAll(ctx context.Context, providerID int64) ([]models.DashboardFilterRow, error)
}

type exportCidRepository interface {
	ListByFilter(ctx context.Context, filterID int64) ([]models.Cid, error)
}

type exportLedgerRepository interface {
	ListByFilter(ctx context.Context, filterID int64) ([]models.ProviderFilter, error)
	Find(ctx context.Context, providerID, filterID int64) (*models.ProviderFilter, error)
}

type exportProviderRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Provider, error)
	FindByWallet(ctx context.Context, wallet string) (*models.Provider, error)
	GetConfig(ctx context.Context, providerID int64) (*models.ProviderConfig, error)
}

// ExportServiceConfig tunes the background export worker.
type ExportServiceConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
	CleanupInterval   time.Duration
	ArchiveTTL        time.Duration
}

// ExportService builds account export archives in the background. An archive
// holds the provider record, every non-orphaned owned filter grouped into
// directories by visibility class, and every imported filter under imported/.
// Orphaned owned filters (nobody but the owner subscribes) are skipped.
type ExportService struct {
	filters   exportFilterRepository
	cids      exportCidRepository
	ledger    exportLedgerRepository
	providers exportProviderRepository

	store  *storage.LocalStorage
	signer *storage.SignedURLSigner
	queue  *jobs.Queue
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
	cfg    ExportServiceConfig

	mu       sync.RWMutex
	jobsByID map[string]*models.ExportJob

	cleanupCancel context.CancelFunc
}

// NewExportService constructs an ExportService with its worker queue.
func NewExportService(filters exportFilterRepository, cids exportCidRepository, ledger exportLedgerRepository, providers exportProviderRepository,
	store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger, cfg ExportServiceConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		filters:   filters,
		cids:      cids,
		ledger:    ledger,
		providers: providers,
		store:     store,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
		cfg:       cfg,
		jobsByID:  make(map[string]*models.ExportJob),
	}
	s.queue = jobs.NewQueue("account-exports", s.processJob, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool and the archive cleanup loop.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	if s.cfg.CleanupInterval > 0 && s.cfg.ArchiveTTL > 0 {
		cleanupCtx, cancel := context.WithCancel(ctx)
		s.cleanupCancel = cancel
		go s.cleanupLoop(cleanupCtx)
	}
}

// Stop drains the worker pool.
func (s *ExportService) Stop() {
	if s.cleanupCancel != nil {
		s.cleanupCancel()
	}
	s.queue.Stop()
}

// Enqueue schedules an account export for the wallet's provider. Providers
// can only export their own account.
func (s *ExportService) Enqueue(ctx context.Context, actingProviderID int64, targetWallet string) (*models.ExportJob, error) {
	if targetWallet == "" {
		return nil, appErrors.Validationf("wallet", "wallet address is required")
	}
	target, err := s.providers.FindByWallet(ctx, targetWallet)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "provider not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch provider")
	}
	if target.ID != actingProviderID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "providers can only export their own account")
	}

	now := time.Now().UTC()
	job := &models.ExportJob{
		ID:         uuid.NewString(),
		ProviderID: target.ID,
		Status:     models.ExportJobPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.mu.Lock()
	s.jobsByID[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: exportJobType, Payload: target.ID}); err != nil {
		s.setJobFailed(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export")
	}
	return s.snapshotJob(job.ID), nil
}

// GetJob returns the current state of an export job owned by the provider.
func (s *ExportService) GetJob(providerID int64, jobID string) (*models.ExportJob, error) {
	job := s.snapshotJob(jobID)
	if job == nil || job.ProviderID != providerID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return job, nil
}

// OpenDownload validates a signed download token and opens the archive.
func (s *ExportService) OpenDownload(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export archive not found")
	}
	return file, nil
}

// RenderManifest produces a CSV or PDF listing of a filter's identifiers. The
// filter must belong to the acting provider.
func (s *ExportService) RenderManifest(ctx context.Context, providerID, filterID int64, format models.ManifestFormat) ([]byte, string, error) {
	filter, err := s.filters.FindOwned(ctx, filterID, providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "filter not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch filter")
	}
	cids, err := s.cids.ListByFilter(ctx, filterID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cids")
	}

	dataset := export.Dataset{
		Headers: []string{"cid", "ref_url", "added_at"},
		Rows:    make([]map[string]string, 0, len(cids)),
	}
	for _, c := range cids {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"cid":      c.Cid,
			"ref_url":  c.RefURL,
			"added_at": c.CreatedAt.Format(time.RFC3339),
		})
	}

	switch format {
	case models.ManifestFormatPDF:
		payload, err := s.pdf.Render(dataset, filter.Name)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render manifest")
		}
		return payload, filter.ShareID + ".pdf", nil
	case models.ManifestFormatCSV, "":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render manifest")
		}
		return payload, filter.ShareID + ".csv", nil
	default:
		return nil, "", appErrors.Validationf("format", "unknown manifest format %q", format)
	}
}

func (s *ExportService) processJob(ctx context.Context, job jobs.Job) error {
	providerID, ok := job.Payload.(int64)
	if !ok {
		s.setJobFailed(job.ID, fmt.Errorf("bad payload type %T", job.Payload))
		return nil
	}

	s.setJobStatus(job.ID, models.ExportJobProcessing)

	archive, err := s.buildArchive(ctx, providerID)
	if err != nil {
		s.setJobFailed(job.ID, err)
		return err
	}

	relPath := fmt.Sprintf("accounts/%d/%s.zip", providerID, job.ID)
	if _, err := s.store.Save(relPath, archive); err != nil {
		s.setJobFailed(job.ID, err)
		return err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.setJobFailed(job.ID, err)
		return err
	}

	s.mu.Lock()
	if j, found := s.jobsByID[job.ID]; found {
		j.Status = models.ExportJobCompleted
		j.RelativePath = relPath
		j.DownloadURL = "/exports/download?token=" + token
		j.ExpiresAt = &expiresAt
		j.UpdatedAt = time.Now().UTC()
	}
	s.mu.Unlock()

	s.logger.Info("account export completed",
		zap.String("job_id", job.ID),
		zap.Int64("provider_id", providerID))
	return nil
}

// buildArchive assembles the zip for the provider account.
func (s *ExportService) buildArchive(ctx context.Context, providerID int64) ([]byte, error) {
	provider, err := s.providers.FindByID(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("fetch provider: %w", err)
	}

	account := models.AccountExport{Provider: *provider}
	if cfg, err := s.providers.GetConfig(ctx, providerID); err == nil {
		account.Config = cfg
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fetch provider config: %w", err)
	}

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	providerJSON, err := json.MarshalIndent(account, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal provider record: %w", err)
	}
	if err := writeZipEntry(zw, "provider.json", providerJSON); err != nil {
		return nil, err
	}

	owned, err := s.filters.ListOwned(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("list owned filters: %w", err)
	}
	for i := range owned {
		filter := owned[i]
		rows, err := s.ledger.ListByFilter(ctx, filter.ID)
		if err != nil {
			return nil, fmt.Errorf("list subscribers of filter %d: %w", filter.ID, err)
		}
		if filter.IsOrphan(rows) {
			continue
		}
		entry, err := s.buildFilterEntry(ctx, filter, "")
		if err != nil {
			return nil, err
		}
		name := filter.Visibility.DirName() + "/" + filter.ShareID + ".json"
		if err := writeZipEntry(zw, name, entry); err != nil {
			return nil, err
		}
	}

	subscribed, err := s.filters.ListDashboardAll(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	for i := range subscribed {
		row := subscribed[i]
		if row.ProviderID == providerID {
			continue
		}
		entry, err := s.buildFilterEntry(ctx, row.Filter, row.Notes)
		if err != nil {
			return nil, err
		}
		name := "imported/" + row.ShareID + ".json"
		if err := writeZipEntry(zw, name, entry); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *ExportService) buildFilterEntry(ctx context.Context, filter models.Filter, notes string) ([]byte, error) {
	cids, err := s.cids.ListByFilter(ctx, filter.ID)
	if err != nil {
		return nil, fmt.Errorf("list cids of filter %d: %w", filter.ID, err)
	}
	record := models.AccountExportFilter{Filter: filter, Cids: cids, Notes: notes}
	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal filter %d: %w", filter.ID, err)
	}
	return payload, nil
}

func (s *ExportService) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.store.CleanupOlderThan(s.cfg.ArchiveTTL)
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				s.logger.Info("expired export archives removed", zap.Int("count", len(deleted)))
			}
		}
	}
}

func (s *ExportService) snapshotJob(jobID string) *models.ExportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, found := s.jobsByID[jobID]
	if !found {
		return nil
	}
	copied := *job
	return &copied
}

func (s *ExportService) setJobStatus(jobID string, status models.ExportJobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, found := s.jobsByID[jobID]; found {
		job.Status = status
		job.UpdatedAt = time.Now().UTC()
	}
}

func (s *ExportService) setJobFailed(jobID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, found := s.jobsByID[jobID]; found {
		job.Status = models.ExportJobFailed
		job.Error = err.Error()
		job.UpdatedAt = time.Now().UTC()
	}
}

func writeZipEntry(zw *zip.Writer, name string, payload []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", name, err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write archive entry %s: %w", name, err)
	}
	return nil
}

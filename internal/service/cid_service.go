package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/filterhub/filterhub-api/internal/models"
	appErrors "github.com/filterhub/filterhub-api/pkg/errors"
)

type cidRepository interface {
	Create(ctx context.Context, cid *models.Cid) error
	FindByID(ctx context.Context, id int64) (*models.Cid, error)
	ListByFilter(ctx context.Context, filterID int64) ([]models.Cid, error)
	Update(ctx context.Context, cid *models.Cid) error
	Delete(ctx context.Context, id int64) error
	CountLocalOverlap(ctx context.Context, providerID, excludeFilterID int64, value string) (int64, error)
	CountRemoteOverlap(ctx context.Context, providerID int64, value string) (int64, error)
}

type cidFilterRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Filter, error)
	FindOwned(ctx context.Context, id, providerID int64) (*models.Filter, error)
}

// CidService manages identifier entries and answers the conflict detection
// query used before an identifier is added to a third-party candidate filter.
type CidService struct {
	repo      cidRepository
	filters   cidFilterRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCidService constructs a CidService.
func NewCidService(repo cidRepository, filters cidFilterRepository, validate *validator.Validate, logger *zap.Logger) *CidService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CidService{repo: repo, filters: filters, validator: validate, logger: logger}
}

// Create adds an identifier to a filter the provider owns.
func (s *CidService) Create(ctx context.Context, providerID, filterID int64, input models.CidInput) (*models.Cid, error) {
	if strings.TrimSpace(input.Cid) == "" {
		return nil, appErrors.Validationf("cid", "cid value is required")
	}
	if err := s.requireOwnedFilter(ctx, providerID, filterID); err != nil {
		return nil, err
	}

	cid := &models.Cid{Cid: input.Cid, RefURL: input.RefURL, FilterID: filterID}
	if err := s.repo.Create(ctx, cid); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create cid")
	}
	return cid, nil
}

// AppendIdentifier adds an identifier to a filter on behalf of a trusted
// collaborator, bypassing the ownership check. The filter only has to exist.
func (s *CidService) AppendIdentifier(ctx context.Context, filterID int64, value string) (*models.Cid, error) {
	if strings.TrimSpace(value) == "" {
		return nil, appErrors.Validationf("cid", "cid value is required")
	}
	if _, err := s.filters.FindByID(ctx, filterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "filter not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch filter")
	}

	cid := &models.Cid{Cid: value, FilterID: filterID}
	if err := s.repo.Create(ctx, cid); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append cid")
	}
	s.logger.Info("cid appended", zap.Int64("filter_id", filterID))
	return cid, nil
}

// Update edits an identifier's value, reference URL, or moves it to a
// different filter. Both the current and the destination filter must belong to
// the acting provider.
func (s *CidService) Update(ctx context.Context, providerID, cidID int64, value, refURL string, targetFilterID int64) (*models.Cid, error) {
	cid, err := s.getOwnedCid(ctx, providerID, cidID)
	if err != nil {
		return nil, err
	}

	if value != "" {
		cid.Cid = value
	}
	cid.RefURL = refURL

	if targetFilterID != 0 && targetFilterID != cid.FilterID {
		if err := s.requireOwnedFilter(ctx, providerID, targetFilterID); err != nil {
			return nil, err
		}
		cid.FilterID = targetFilterID
	}

	if err := s.repo.Update(ctx, cid); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update cid")
	}
	return cid, nil
}

// Move re-parents an identifier to another filter owned by the same provider.
func (s *CidService) Move(ctx context.Context, providerID, cidID, targetFilterID int64) (*models.Cid, error) {
	cid, err := s.getOwnedCid(ctx, providerID, cidID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnedFilter(ctx, providerID, targetFilterID); err != nil {
		return nil, err
	}

	cid.FilterID = targetFilterID
	if err := s.repo.Update(ctx, cid); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move cid")
	}
	s.logger.Info("cid moved", zap.Int64("cid_id", cidID), zap.Int64("filter_id", targetFilterID))
	return cid, nil
}

// Delete removes a single identifier from a filter the provider owns.
func (s *CidService) Delete(ctx context.Context, providerID, cidID int64) error {
	if _, err := s.getOwnedCid(ctx, providerID, cidID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, cidID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete cid")
	}
	return nil
}

// ListByFilter returns every identifier of a filter the provider owns.
func (s *CidService) ListByFilter(ctx context.Context, providerID, filterID int64) ([]models.Cid, error) {
	if err := s.requireOwnedFilter(ctx, providerID, filterID); err != nil {
		return nil, err
	}
	cids, err := s.repo.ListByFilter(ctx, filterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cids")
	}
	return cids, nil
}

// CheckConflict returns two independent overlap counts for a candidate
// identifier: how many of the provider's own other filters already contain a
// matching value, and how many subscribed non-owned filters do. Matching is
// case-insensitive. Each failing argument produces its own validation error.
func (s *CidService) CheckConflict(ctx context.Context, providerID, filterID int64, value string) (*models.ConflictCount, error) {
	if filterID <= 0 {
		return nil, appErrors.Validationf("filterId", "filterId must be a positive integer")
	}
	if providerID <= 0 {
		return nil, appErrors.Validationf("providerId", "providerId must be a positive integer")
	}
	if strings.TrimSpace(value) == "" {
		return nil, appErrors.Validationf("cid", "cid value is required")
	}

	local, err := s.repo.CountLocalOverlap(ctx, providerID, filterID, value)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count local overlap")
	}
	remote, err := s.repo.CountRemoteOverlap(ctx, providerID, value)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count remote overlap")
	}

	return &models.ConflictCount{Local: local, Remote: remote}, nil
}

func (s *CidService) requireOwnedFilter(ctx context.Context, providerID, filterID int64) error {
	if _, err := s.filters.FindOwned(ctx, filterID, providerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "filter not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch filter")
	}
	return nil
}

func (s *CidService) getOwnedCid(ctx context.Context, providerID, cidID int64) (*models.Cid, error) {
	cid, err := s.repo.FindByID(ctx, cidID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cid not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch cid")
	}
	if err := s.requireOwnedFilter(ctx, providerID, cid.FilterID); err != nil {
		return nil, err
	}
	return cid, nil
}

package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/filterhub/filterhub-api/internal/models"
	appErrors "github.com/filterhub/filterhub-api/pkg/errors"
)

type dealRepository interface {
	Create(ctx context.Context, deal *models.Deal) error
	ListByProvider(ctx context.Context, providerID int64) ([]models.Deal, error)
	IsCidCovered(ctx context.Context, providerID int64, value string) (bool, error)
}

// DealService records retrieval decisions against the provider's currently
// enforced filters.
type DealService struct {
	repo   dealRepository
	logger *zap.Logger
}

// NewDealService constructs a DealService.
func NewDealService(repo dealRepository, logger *zap.Logger) *DealService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DealService{repo: repo, logger: logger}
}

// Decide checks the requested cid against the provider's enforced filters,
// records the outcome as a deal and returns it. A cid covered by an enabled,
// actively enforced filter is rejected.
func (s *DealService) Decide(ctx context.Context, providerID int64, value string) (*models.Deal, error) {
	if strings.TrimSpace(value) == "" {
		return nil, appErrors.Validationf("cid", "cid value is required")
	}

	covered, err := s.repo.IsCidCovered(ctx, providerID, value)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check cid coverage")
	}

	status := models.DealStatusAccepted
	if covered {
		status = models.DealStatusRejected
	}

	deal := &models.Deal{ProviderID: providerID, DealCid: value, Status: status}
	if err := s.repo.Create(ctx, deal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record deal")
	}
	return deal, nil
}

// List returns the provider's recorded deals, newest first.
func (s *DealService) List(ctx context.Context, providerID int64) ([]models.Deal, error) {
	deals, err := s.repo.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list deals")
	}
	return deals, nil
}

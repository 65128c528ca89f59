package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/filterhub/filterhub-api/internal/models"
	appErrors "github.com/filterhub/filterhub-api/pkg/errors"
)

type dashboardRepository interface {
	SearchDashboard(ctx context.Context, params models.DashboardSearchParams) ([]models.DashboardFilterRow, int, error)
	ListDashboardAll(ctx context.Context, providerID int64) ([]models.DashboardFilterRow, error)
}

// DashboardSearchResult bundles a dashboard page with its total count.
type DashboardSearchResult struct {
	Filters []models.DashboardFilterRow `json:"filters"`
	Total   int                         `json:"total"`
}

// DashboardService serves the provider's subscribed-filters view and the
// account-level rollups computed over the full unpaged subscribed set.
type DashboardService struct {
	repo     dashboardRepository
	cache    searchCache
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewDashboardService constructs a DashboardService. The cache is optional.
func NewDashboardService(repo dashboardRepository, cache searchCache, logger *zap.Logger, cacheTTL time.Duration) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, logger: logger, cacheTTL: cacheTTL}
}

// Search returns the provider's subscribed filters, active or not, matching
// the free-text query.
func (s *DashboardService) Search(ctx context.Context, params models.DashboardSearchParams) (*DashboardSearchResult, error) {
	rows, total, err := s.repo.SearchDashboard(ctx, params)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search dashboard")
	}
	if rows == nil {
		rows = []models.DashboardFilterRow{}
	}
	return &DashboardSearchResult{Filters: rows, Total: total}, nil
}

// Stats computes account-level rollups over the full subscribed set. A filter
// counts as currently filtering only when both the catalog enabled flag and
// the provider's own active flag hold.
func (s *DashboardService) Stats(ctx context.Context, providerID int64) (*models.DashboardStats, error) {
	key := fmt.Sprintf("dashboard:stats:%d", providerID)
	if s.cache != nil {
		var cached models.DashboardStats
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard stats cache read failed", zap.Error(err))
		}
	}

	rows, err := s.repo.ListDashboardAll(ctx, providerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list dashboard filters")
	}

	stats := &models.DashboardStats{}
	for _, row := range rows {
		if row.Enabled && row.SubscriptionActive {
			stats.CurrentlyFiltering += row.CidsCount
		}
		if row.SubscriptionActive {
			stats.ActiveFilters++
		} else {
			stats.InactiveFilters++
		}
		if row.ProviderID != providerID {
			stats.ImportedFilters++
		} else {
			// external subscribers of owned filters; the owner's own
			// ledger row is part of subs_count, so subtract it.
			stats.ExternalSubscribers += row.SubsCount - 1
		}
		switch row.Visibility {
		case models.VisibilityNone:
			stats.NoneFilters++
		case models.VisibilityPrivate:
			stats.PrivateFilters++
		case models.VisibilityPublic:
			stats.PublicFilters++
		case models.VisibilityThirdParty:
			stats.ThirdPartyFilters++
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, stats, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

// InvalidateStats drops the cached rollups for the provider.
func (s *DashboardService) InvalidateStats(ctx context.Context, providerID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("dashboard:stats:%d", providerID)); err != nil {
		s.logger.Warn("dashboard stats cache invalidation failed", zap.Error(err))
	}
}

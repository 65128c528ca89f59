package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/filterhub/filterhub-api/internal/models"
	appErrors "github.com/filterhub/filterhub-api/pkg/errors"
)

type subscriptionRepository interface {
	Find(ctx context.Context, providerID, filterID int64) (*models.ProviderFilter, error)
	ListByFilter(ctx context.Context, filterID int64) ([]models.ProviderFilter, error)
	Create(ctx context.Context, row *models.ProviderFilter) error
	Update(ctx context.Context, row *models.ProviderFilter) error
	Delete(ctx context.Context, providerID, filterID int64) error
	SetEnabledForAll(ctx context.Context, filterID int64, enabled bool) error
	UnsubscribeOwner(ctx context.Context, ownerID, filterID int64) error
}

type subscriptionFilterRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Filter, error)
	FindByShareID(ctx context.Context, shareID string) (*models.PublicFilterRow, error)
}

type subscriptionProviderRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Provider, error)
}

// SubscriptionService manages the subscription ledger: imports, per-subscriber
// enablement, notes and the owner-triggered cascades.
type SubscriptionService struct {
	repo      subscriptionRepository
	filters   subscriptionFilterRepository
	providers subscriptionProviderRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubscriptionService constructs a SubscriptionService.
func NewSubscriptionService(repo subscriptionRepository, filters subscriptionFilterRepository, providers subscriptionProviderRepository, validate *validator.Validate, logger *zap.Logger) *SubscriptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubscriptionService{repo: repo, filters: filters, providers: providers, validator: validate, logger: logger}
}

// Subscribe imports a filter for the provider, creating a ledger row whose
// initial active state is caller-specified. Both sides of the pair must exist
// and the pair must not already be linked.
func (s *SubscriptionService) Subscribe(ctx context.Context, providerID, filterID int64, active bool, notes string) (*models.ProviderFilter, error) {
	if _, err := s.providers.FindByID(ctx, providerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "provider not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch provider")
	}

	filter, err := s.filters.FindByID(ctx, filterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "filter not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch filter")
	}

	if _, err := s.repo.Find(ctx, providerID, filterID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "filter already imported")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subscription")
	}

	row := &models.ProviderFilter{
		ProviderID: providerID,
		FilterID:   filterID,
		Active:     active,
		Notes:      notes,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subscription")
	}

	s.logger.Info("filter imported",
		zap.Int64("provider_id", providerID),
		zap.Int64("filter_id", filter.ID))
	return row, nil
}

// SubscribeByShareID imports a filter referenced by its share token. Tokens of
// non-shareable filters do not resolve for anyone but the owner, and the owner
// cannot import their own filter.
func (s *SubscriptionService) SubscribeByShareID(ctx context.Context, providerID int64, shareID string, active bool, notes string) (*models.ProviderFilter, error) {
	if shareID == "" {
		return nil, appErrors.Validationf("share_id", "share id is required")
	}
	filter, err := s.filters.FindByShareID(ctx, shareID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "filter not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch filter")
	}
	if filter.Visibility != models.VisibilityPublic && filter.Visibility != models.VisibilityThirdParty && filter.ProviderID != providerID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "filter not found")
	}
	if filter.ProviderID == providerID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot import an owned filter")
	}
	return s.Subscribe(ctx, providerID, filter.ID, active, notes)
}

// Update applies a subscription patch for the (provider, filter) pair. When
// the filter is orphaned, any attempt to activate the subscription is forced
// back to inactive; the rest of the patch still applies.
func (s *SubscriptionService) Update(ctx context.Context, providerID, filterID int64, patch models.SubscriptionPatch) (*models.ProviderFilter, error) {
	row, err := s.repo.Find(ctx, providerID, filterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subscription not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch subscription")
	}

	if patch.Active != nil {
		row.Active = *patch.Active
	}
	if patch.Notes != nil {
		row.Notes = *patch.Notes
	}

	// Enforcement of a list nobody outside the owner watches is never
	// allowed; an orphaned filter's subscription stays inactive no matter
	// what the patch asked for.
	if row.Active {
		filter, err := s.filters.FindByID(ctx, filterID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch filter")
		}
		ledger, err := s.repo.ListByFilter(ctx, filterID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subscribers")
		}
		if filter.IsOrphan(ledger) {
			row.Active = false
		}
	}

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subscription")
	}
	return row, nil
}

// SetEnabledForAll flips the filter's catalog enabled flag and cascades the
// same value to every subscriber's active flag. Owner only.
func (s *SubscriptionService) SetEnabledForAll(ctx context.Context, providerID, filterID int64, enabled bool) error {
	filter, err := s.filters.FindByID(ctx, filterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "filter not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch filter")
	}
	if filter.ProviderID != providerID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the owner can toggle a filter for all subscribers")
	}

	if err := s.repo.SetEnabledForAll(ctx, filterID, enabled); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cascade enabled state")
	}

	s.logger.Info("filter toggled for all subscribers",
		zap.Int64("filter_id", filterID),
		zap.Bool("enabled", enabled))
	return nil
}

// Unsubscribe removes the provider's ledger row. For a non-owner this only
// drops their own row. When the owner unsubscribes, every remaining
// subscription is deactivated and the filter is force-disabled, but the
// filter itself survives for the remaining subscribers.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, providerID, filterID int64) error {
	filter, err := s.filters.FindByID(ctx, filterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "filter not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch filter")
	}

	if _, err := s.repo.Find(ctx, providerID, filterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subscription not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch subscription")
	}

	if filter.ProviderID == providerID {
		if err := s.repo.UnsubscribeOwner(ctx, providerID, filterID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unsubscribe owner")
		}
		s.logger.Info("owner unsubscribed, filter disabled for all",
			zap.Int64("filter_id", filterID),
			zap.Int64("provider_id", providerID))
		return nil
	}

	if err := s.repo.Delete(ctx, providerID, filterID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subscription")
	}
	return nil
}

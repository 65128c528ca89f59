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

type providerRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Provider, error)
	FindByWallet(ctx context.Context, wallet string) (*models.Provider, error)
	Update(ctx context.Context, provider *models.Provider) error
	GetConfig(ctx context.Context, providerID int64) (*models.ProviderConfig, error)
	UpsertConfig(ctx context.Context, cfg *models.ProviderConfig) error
	DeleteCascade(ctx context.Context, providerID int64) error
}

// ProviderUpdateRequest carries the editable business metadata of an account.
type ProviderUpdateRequest struct {
	Email         string `json:"email" validate:"omitempty,email"`
	BusinessName  string `json:"business_name"`
	Website       string `json:"website"`
	ContactPerson string `json:"contact_person"`
	Address       string `json:"address"`
	Country       string `json:"country"`
}

// ProviderService manages provider profiles, per-account settings and the
// account delete cascade.
type ProviderService struct {
	repo      providerRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProviderService constructs a ProviderService.
func NewProviderService(repo providerRepository, validate *validator.Validate, logger *zap.Logger) *ProviderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProviderService{repo: repo, validator: validate, logger: logger}
}

// Get returns a provider profile.
func (s *ProviderService) Get(ctx context.Context, providerID int64) (*models.Provider, error) {
	provider, err := s.repo.FindByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "provider not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch provider")
	}
	return provider, nil
}

// Update edits the acting provider's business metadata.
func (s *ProviderService) Update(ctx context.Context, providerID int64, req ProviderUpdateRequest) (*models.Provider, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid provider payload")
	}

	provider, err := s.Get(ctx, providerID)
	if err != nil {
		return nil, err
	}

	if req.Email != "" {
		provider.Email = req.Email
	}
	provider.BusinessName = req.BusinessName
	provider.Website = req.Website
	provider.ContactPerson = req.ContactPerson
	provider.Address = req.Address
	provider.Country = req.Country

	if err := s.repo.Update(ctx, provider); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update provider")
	}
	return provider, nil
}

// GetConfig returns the provider's settings, falling back to defaults when no
// row exists yet.
func (s *ProviderService) GetConfig(ctx context.Context, providerID int64) (*models.ProviderConfig, error) {
	cfg, err := s.repo.GetConfig(ctx, providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.ProviderConfig{ProviderID: providerID}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch provider config")
	}
	return cfg, nil
}

// UpdateConfig creates or replaces the provider's settings row.
func (s *ProviderService) UpdateConfig(ctx context.Context, providerID int64, cfg models.ProviderConfig) (*models.ProviderConfig, error) {
	cfg.ProviderID = providerID
	if err := s.repo.UpsertConfig(ctx, &cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update provider config")
	}
	return &cfg, nil
}

// Delete removes the account identified by wallet address together with
// everything it owns: deals, identifiers of owned filters, ledger rows on both
// sides, owned filters and the settings row. Providers can only delete
// themselves.
func (s *ProviderService) Delete(ctx context.Context, actingProviderID int64, targetWallet string) error {
	if targetWallet == "" {
		return appErrors.Validationf("wallet", "wallet address is required")
	}

	target, err := s.repo.FindByWallet(ctx, targetWallet)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "provider not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch provider")
	}
	if target.ID != actingProviderID {
		return appErrors.Clone(appErrors.ErrForbidden, "providers can only delete their own account")
	}

	if err := s.repo.DeleteCascade(ctx, target.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete provider")
	}

	s.logger.Info("provider deleted", zap.Int64("provider_id", target.ID))
	return nil
}

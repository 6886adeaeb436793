package flavors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sorbetero/sorbetero-backend/pkg/db/models"
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
	pkgerrors "github.com/sorbetero/sorbetero-backend/pkg/errors"
	"gorm.io/gorm"
)

type flavorsRepository interface {
	Create(ctx context.Context, flavor *models.Flavor) (*models.Flavor, error)
	FindByID(ctx context.Context, id uint) (*models.Flavor, error)
	ListByVendor(ctx context.Context, vendorID uint) ([]models.Flavor, error)
	CountPublished(ctx context.Context, vendorID uint) (int64, error)
	UpdateStatus(ctx context.Context, id uint, status enums.StoreStatus) error
}

// CreateFlavorInput holds the fields required to create a flavor.
type CreateFlavorInput struct {
	Name        string
	Description *string
	BasePrice   decimal.Decimal
}

// Service exposes flavor creation, listing, and publish-state transitions.
type Service interface {
	CreateFlavor(ctx context.Context, vendorID uint, input CreateFlavorInput) (*models.Flavor, error)
	ListFlavors(ctx context.Context, vendorID uint) ([]models.Flavor, error)
	Publish(ctx context.Context, vendorID, flavorID uint) (*models.Flavor, error)
	Unpublish(ctx context.Context, vendorID, flavorID uint) (*models.Flavor, error)
}

type service struct {
	repo flavorsRepository
	now  func() time.Time
}

// NewService validates dependencies and builds the flavor service.
func NewService(repo flavorsRepository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("flavors repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}, nil
}

func (s *service) CreateFlavor(ctx context.Context, vendorID uint, input CreateFlavorInput) (*models.Flavor, error) {
	if vendorID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "flavor name is required")
	}
	if input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}

	flavor := &models.Flavor{
		VendorID:    vendorID,
		Name:        name,
		Description: input.Description,
		BasePrice:   input.BasePrice,
		StoreStatus: enums.StoreStatusDraft,
	}
	created, err := s.repo.Create(ctx, flavor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create flavor")
	}
	return created, nil
}

func (s *service) ListFlavors(ctx context.Context, vendorID uint) ([]models.Flavor, error) {
	if vendorID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	rows, err := s.repo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list flavors")
	}
	return rows, nil
}

// Publish moves a flavor to the published state. Flavors locked by a
// subscription downgrade stay locked until the vendor upgrades.
func (s *service) Publish(ctx context.Context, vendorID, flavorID uint) (*models.Flavor, error) {
	flavor, err := s.ownedFlavor(ctx, vendorID, flavorID)
	if err != nil {
		return nil, err
	}
	if flavor.LockedBySubscription {
		return nil, pkgerrors.New(pkgerrors.CodeLimitExceeded, "flavor locked by subscription downgrade").
			WithDetails(map[string]any{"upgrade_required": true})
	}
	if flavor.StoreStatus == enums.StoreStatusPublished {
		return flavor, nil
	}

	if err := s.repo.UpdateStatus(ctx, flavorID, enums.StoreStatusPublished); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish flavor")
	}
	flavor.StoreStatus = enums.StoreStatusPublished
	return flavor, nil
}

// Unpublish moves a published flavor back to ready.
func (s *service) Unpublish(ctx context.Context, vendorID, flavorID uint) (*models.Flavor, error) {
	flavor, err := s.ownedFlavor(ctx, vendorID, flavorID)
	if err != nil {
		return nil, err
	}
	if flavor.StoreStatus != enums.StoreStatusPublished {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "flavor is not published")
	}

	if err := s.repo.UpdateStatus(ctx, flavorID, enums.StoreStatusReady); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unpublish flavor")
	}
	flavor.StoreStatus = enums.StoreStatusReady
	return flavor, nil
}

func (s *service) ownedFlavor(ctx context.Context, vendorID, flavorID uint) (*models.Flavor, error) {
	if vendorID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if flavorID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "flavor id is required")
	}

	flavor, err := s.repo.FindByID(ctx, flavorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "flavor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup flavor")
	}
	if flavor.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "flavor does not belong to vendor")
	}
	return flavor, nil
}

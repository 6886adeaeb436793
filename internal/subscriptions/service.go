package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sorbetero/sorbetero-backend/pkg/db/models"
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
	pkgerrors "github.com/sorbetero/sorbetero-backend/pkg/errors"
	"github.com/sorbetero/sorbetero-backend/pkg/types"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

type vendorsRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Vendor, error)
	Update(ctx context.Context, vendor *models.Vendor) error
	ListExpiryCandidates(ctx context.Context) ([]models.Vendor, error)
}

type flavorsRepository interface {
	CountPublished(ctx context.Context, vendorID uint) (int64, error)
	UnlockAll(ctx context.Context, vendorID uint) error
}

type drumsRepository interface {
	TotalStock(ctx context.Context, vendorID uint) (int, error)
}

type ordersRepository interface {
	CountForVendorBetween(ctx context.Context, vendorID uint, from, to time.Time) (int64, error)
}

type downgrader interface {
	Downgrade(ctx context.Context, vendorID uint) (*DowngradeResult, error)
}

// Context is a vendor's effective subscription state at the moment of use.
// Builders run the downgrade first when the plan has expired, so the values
// here always reflect current reality.
type Context struct {
	VendorID   uint
	Plan       enums.PlanTier
	StartDate  *time.Time
	EndDate    *time.Time
	Flavors    types.Limit
	Drums      types.Limit
	Orders     types.Limit
	Downgraded bool
}

// Usage is the vendor's current consumption against each allowance.
type Usage struct {
	PublishedFlavors int
	DrumStock        int
	OrdersThisMonth  int
}

// Status combines the subscription context with current usage.
type Status struct {
	Context Context
	Usage   Usage
}

// SweepSummary reports one expiry sweep run.
type SweepSummary struct {
	Checked    int
	Downgraded int
	Results    []*DowngradeResult
}

// Service exposes subscription context building, status, upgrades, and the
// expiry sweep.
type Service interface {
	BuildContext(ctx context.Context, vendorID uint) (*Context, error)
	Status(ctx context.Context, vendorID uint) (*Status, error)
	Upgrade(ctx context.Context, vendorID uint, tier enums.PlanTier) (*models.Vendor, error)
	SweepExpired(ctx context.Context) (*SweepSummary, error)
}

type service struct {
	vendors vendorsRepository
	flavors flavorsRepository
	drums   drumsRepository
	orders  ordersRepository
	engine  downgrader
	now     func() time.Time
}

// Params collects the service dependencies.
type Params struct {
	Vendors vendorsRepository
	Flavors flavorsRepository
	Drums   drumsRepository
	Orders  ordersRepository
	Engine  downgrader
	Now     func() time.Time
}

// NewService validates dependencies and builds the subscription service.
func NewService(params Params) (Service, error) {
	if params.Vendors == nil {
		return nil, fmt.Errorf("vendors repository required")
	}
	if params.Flavors == nil {
		return nil, fmt.Errorf("flavors repository required")
	}
	if params.Drums == nil {
		return nil, fmt.Errorf("drums repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("downgrade engine required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		vendors: params.Vendors,
		flavors: params.Flavors,
		drums:   params.Drums,
		orders:  params.Orders,
		engine:  params.Engine,
		now:     params.Now,
	}, nil
}

// BuildContext loads the vendor's subscription state, downgrading first when
// the paid plan has expired. Returns (nil, nil) when the vendor does not
// exist; callers map that to not-found.
func (s *service) BuildContext(ctx context.Context, vendorID uint) (*Context, error) {
	vendor, err := s.vendors.FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup vendor")
	}

	downgraded := false
	if s.isExpired(vendor) && vendor.SubscriptionPlan.IsPaid() {
		result, err := s.engine.Downgrade(ctx, vendorID)
		if err != nil {
			return nil, err
		}
		downgraded = result.Applied

		vendor, err = s.vendors.FindByID(ctx, vendorID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload vendor after downgrade")
		}
	}

	sc := contextFromVendor(vendor)
	sc.Downgraded = downgraded
	return &sc, nil
}

// Status returns the subscription context plus current usage counts.
func (s *service) Status(ctx context.Context, vendorID uint) (*Status, error) {
	sc, err := s.BuildContext(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}

	published, err := s.flavors.CountPublished(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count published flavors")
	}
	stock, err := s.drums.TotalStock(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "total drum stock")
	}
	from, to := monthBounds(s.now())
	orders, err := s.orders.CountForVendorBetween(ctx, vendorID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count monthly orders")
	}

	return &Status{
		Context: *sc,
		Usage: Usage{
			PublishedFlavors: int(published),
			DrumStock:        stock,
			OrdersThisMonth:  int(orders),
		},
	}, nil
}

// Upgrade moves the vendor onto a paid tier for the standard duration and
// unlocks flavors that a previous downgrade had locked.
func (s *service) Upgrade(ctx context.Context, vendorID uint, tier enums.PlanTier) (*models.Vendor, error) {
	if !tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan tier")
	}
	if !tier.IsPaid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "upgrade requires a paid tier")
	}

	vendor, err := s.vendors.FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup vendor")
	}

	limits := LimitsForTier(tier)
	start := startOfDay(s.now())
	end := start.AddDate(0, 0, PaidPlanDurationDays)

	vendor.SubscriptionPlan = tier
	vendor.SubscriptionStartDate = &start
	vendor.SubscriptionEndDate = &end
	vendor.FlavorLimit = limits.Flavors.Encode()
	vendor.DrumLimit = limits.Drums.Encode()
	vendor.OrderLimit = limits.Orders.Encode()

	if err := s.vendors.Update(ctx, vendor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor plan")
	}
	if err := s.flavors.UnlockAll(ctx, vendorID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unlock flavors")
	}
	return vendor, nil
}

// SweepExpired downgrades every vendor whose paid plan has expired. Failures
// are collected per vendor so one bad row never aborts the whole run.
func (s *service) SweepExpired(ctx context.Context) (*SweepSummary, error) {
	candidates, err := s.vendors.ListExpiryCandidates(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expiry candidates")
	}

	summary := &SweepSummary{Checked: len(candidates)}
	var errs error
	for _, vendor := range candidates {
		if !s.isExpired(&vendor) {
			continue
		}
		result, err := s.engine.Downgrade(ctx, vendor.ID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("vendor %d: %w", vendor.ID, err))
			continue
		}
		if result.Applied {
			summary.Downgraded++
			summary.Results = append(summary.Results, result)
		}
	}
	return summary, errs
}

// isExpired honors the subscription through the whole of its end date.
func (s *service) isExpired(vendor *models.Vendor) bool {
	if vendor.SubscriptionEndDate == nil {
		return false
	}
	return endOfDay(*vendor.SubscriptionEndDate).Before(s.now())
}

func contextFromVendor(vendor *models.Vendor) Context {
	return Context{
		VendorID:  vendor.ID,
		Plan:      vendor.SubscriptionPlan,
		StartDate: vendor.SubscriptionStartDate,
		EndDate:   vendor.SubscriptionEndDate,
		Flavors:   vendor.FlavorAllowance(),
		Drums:     vendor.DrumAllowance(),
		Orders:    vendor.OrderAllowance(),
	}
}

func monthBounds(now time.Time) (time.Time, time.Time) {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return from, from.AddDate(0, 1, 0)
}

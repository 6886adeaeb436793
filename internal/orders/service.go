package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sorbetero/sorbetero-backend/pkg/db/models"
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
	pkgerrors "github.com/sorbetero/sorbetero-backend/pkg/errors"
)

type ordersRepository interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	ListByVendor(ctx context.Context, vendorID uint) ([]models.Order, error)
	CountForVendorBetween(ctx context.Context, vendorID uint, from, to time.Time) (int64, error)
}

// CreateOrderInput holds the fields required to book an order.
type CreateOrderInput struct {
	CustomerName  string
	CustomerPhone string
	DrumSize      enums.DrumSize
	FlavorID      *uint
	DeliveryDate  time.Time
	TotalAmount   decimal.Decimal
}

// Service exposes order creation and listing. The monthly order limit is
// enforced upstream by middleware before this service runs.
type Service interface {
	CreateOrder(ctx context.Context, vendorID uint, input CreateOrderInput) (*models.Order, error)
	ListOrders(ctx context.Context, vendorID uint) ([]models.Order, error)
}

type service struct {
	repo ordersRepository
	now  func() time.Time
}

// NewService validates dependencies and builds the order service.
func NewService(repo ordersRepository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}, nil
}

func (s *service) CreateOrder(ctx context.Context, vendorID uint, input CreateOrderInput) (*models.Order, error) {
	if vendorID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer phone is required")
	}
	if !input.DrumSize.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid drum size")
	}
	if input.DeliveryDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery date is required")
	}
	today := time.Date(s.now().Year(), s.now().Month(), s.now().Day(), 0, 0, 0, 0, s.now().Location())
	if input.DeliveryDate.Before(today) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery date cannot be in the past")
	}
	if input.TotalAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount cannot be negative")
	}

	order := &models.Order{
		VendorID:      vendorID,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerPhone: strings.TrimSpace(input.CustomerPhone),
		DrumSize:      input.DrumSize,
		FlavorID:      input.FlavorID,
		DeliveryDate:  input.DeliveryDate,
		Status:        enums.OrderStatusPending,
		TotalAmount:   input.TotalAmount,
	}
	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return created, nil
}

func (s *service) ListOrders(ctx context.Context, vendorID uint) ([]models.Order, error) {
	if vendorID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	rows, err := s.repo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

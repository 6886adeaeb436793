package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/sorbetero/sorbetero-backend/pkg/db/models"
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
	pkgerrors "github.com/sorbetero/sorbetero-backend/pkg/errors"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Engine moves a vendor from a paid plan back to the free tier and shrinks
// the vendor's flavors, drum stock, and future availability to fit the free
// allowances. The whole reconciliation runs in one transaction.
type Engine struct {
	db  txRunner
	now func() time.Time
}

// EngineParams collects the engine dependencies.
type EngineParams struct {
	DB  txRunner
	Now func() time.Time
}

// NewEngine validates dependencies and builds the downgrade engine.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Engine{db: params.DB, now: params.Now}, nil
}

// StockDelta records one size's stock change.
type StockDelta struct {
	Size     enums.DrumSize
	Previous int
	Current  int
}

// AvailabilityDelta records one future availability row adjustment.
type AvailabilityDelta struct {
	AvailabilityID    uint
	Size              enums.DrumSize
	DeliveryDate      time.Time
	PreviousCapacity  int
	Capacity          int
	PreviousAvailable int
	Available         int
}

// DowngradeResult summarizes what a downgrade changed, for sweep logging.
type DowngradeResult struct {
	VendorID           uint
	Applied            bool
	LockedFlavorIDs    []uint
	StockDeltas        []StockDelta
	AvailabilityDeltas []AvailabilityDelta
}

// Downgrade resets the vendor to the free plan and reconciles its resources.
// The vendor row update is conditional on the plan still being paid; when a
// concurrent trigger already downgraded the vendor the call is a no-op with
// Applied=false.
func (e *Engine) Downgrade(ctx context.Context, vendorID uint) (*DowngradeResult, error) {
	if vendorID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}

	result := &DowngradeResult{VendorID: vendorID}
	today := startOfDay(e.now())

	err := e.db.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Vendor{}).
			Where("vendor_id = ? AND subscription_plan <> ?", vendorID, enums.PlanTierFree).
			Updates(map[string]any{
				"subscription_plan":       enums.PlanTierFree,
				"flavor_limit":            FreeFlavorLimit,
				"drum_limit":              FreeDrumLimit,
				"order_limit":             FreeOrderLimit,
				"subscription_start_date": today,
			})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "downgrade vendor row")
		}
		if res.RowsAffected == 0 {
			// Another trigger won the race, or the vendor is already free.
			return nil
		}
		result.Applied = true

		locked, err := enforceFlavorLimit(tx, vendorID, FreeFlavorLimit)
		if err != nil {
			return err
		}
		result.LockedFlavorIDs = locked

		stockDeltas, err := enforceDrumLimit(tx, vendorID, FreeDrumLimit)
		if err != nil {
			return err
		}
		result.StockDeltas = stockDeltas

		availDeltas, err := adjustFutureAvailability(tx, vendorID, stockDeltas, today)
		if err != nil {
			return err
		}
		result.AvailabilityDeltas = availDeltas
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// enforceFlavorLimit demotes the oldest published flavors beyond limit to
// ready and flags them locked. The newest flavors stay visible.
func enforceFlavorLimit(tx *gorm.DB, vendorID uint, limit int) ([]uint, error) {
	var published []models.Flavor
	err := tx.Model(&models.Flavor{}).
		Where("vendor_id = ? AND store_status = ?", vendorID, enums.StoreStatusPublished).
		Order("created_at DESC").Order("flavor_id DESC").
		Find(&published).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list published flavors")
	}
	if len(published) <= limit {
		return nil, nil
	}

	excess := published[limit:]
	ids := make([]uint, len(excess))
	for i, flavor := range excess {
		ids[i] = flavor.ID
	}

	err = tx.Model(&models.Flavor{}).
		Where("flavor_id IN ?", ids).
		Updates(map[string]any{
			"store_status":           enums.StoreStatusReady,
			"locked_by_subscription": true,
		}).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock excess flavors")
	}
	return ids, nil
}

// enforceDrumLimit shrinks per-size stock to fit limit using the floor/cut
// priority policy and writes only the rows that changed.
func enforceDrumLimit(tx *gorm.DB, vendorID uint, limit int) ([]StockDelta, error) {
	var rows []models.VendorDrumPricing
	err := tx.Model(&models.VendorDrumPricing{}).
		Where("vendor_id = ?", vendorID).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list drum pricing")
	}

	stock := make(map[enums.DrumSize]int, len(rows))
	for _, row := range rows {
		stock[row.DrumSize] = row.Stock
	}

	target := allocateDrumStock(stock, limit)

	var deltas []StockDelta
	for _, row := range rows {
		want := target[row.DrumSize]
		if want == row.Stock {
			continue
		}
		err := tx.Model(&models.VendorDrumPricing{}).
			Where("pricing_id = ?", row.ID).
			Update("stock", want).Error
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update drum stock")
		}
		deltas = append(deltas, StockDelta{Size: row.DrumSize, Previous: row.Stock, Current: want})
	}
	return deltas, nil
}

// allocateDrumStock returns the per-size stock after reduction to limit.
//
// If total stock already fits, nothing changes. Otherwise each size with
// stock gets a floor of 1 when the limit covers every active size; when it
// does not, the limit is handed out as floors small first. Excess is then
// cut large first without dipping below floors, and a second floor-ignoring
// pass runs if the first cannot absorb it all.
func allocateDrumStock(stock map[enums.DrumSize]int, limit int) map[enums.DrumSize]int {
	result := make(map[enums.DrumSize]int, len(stock))
	total := 0
	for size, count := range stock {
		result[size] = count
		total += count
	}
	if limit < 0 || total <= limit {
		return result
	}

	active := 0
	for _, count := range stock {
		if count > 0 {
			active++
		}
	}

	floors := make(map[enums.DrumSize]int, len(stock))
	if limit >= active {
		for size, count := range stock {
			if count > 0 {
				floors[size] = 1
			}
		}
	} else {
		remaining := limit
		for _, size := range enums.DrumSizesBySmallestFirst {
			if remaining == 0 {
				break
			}
			if stock[size] > 0 {
				floors[size] = 1
				remaining--
			}
		}
	}

	excess := total - limit
	for _, size := range enums.DrumSizesByLargestFirst {
		if excess == 0 {
			break
		}
		reducible := result[size] - floors[size]
		if reducible <= 0 {
			continue
		}
		cut := min(reducible, excess)
		result[size] -= cut
		excess -= cut
	}

	// Floors themselves can exceed the limit; finish the reduction without them.
	for _, size := range enums.DrumSizesByLargestFirst {
		if excess == 0 {
			break
		}
		cut := min(result[size], excess)
		result[size] -= cut
		excess -= cut
	}
	return result
}

// adjustFutureAvailability clamps future availability rows of reduced sizes
// down to the new stock, never below existing commitments.
func adjustFutureAvailability(tx *gorm.DB, vendorID uint, stockDeltas []StockDelta, today time.Time) ([]AvailabilityDelta, error) {
	var deltas []AvailabilityDelta
	for _, sd := range stockDeltas {
		if sd.Current >= sd.Previous {
			continue
		}
		var rows []models.DailyDrumAvailability
		err := tx.Model(&models.DailyDrumAvailability{}).
			Where("vendor_id = ? AND drum_size = ? AND delivery_date >= ?", vendorID, sd.Size, today).
			Find(&rows).Error
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list future availability")
		}

		for _, row := range rows {
			committed := row.Committed()
			capacity := min(row.TotalCapacity, max(sd.Current, committed))
			available := max(0, capacity-committed)
			if capacity == row.TotalCapacity && available == row.AvailableCount {
				continue
			}
			err := tx.Model(&models.DailyDrumAvailability{}).
				Where("availability_id = ?", row.ID).
				Updates(map[string]any{
					"total_capacity":  capacity,
					"available_count": available,
				}).Error
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update availability row")
			}
			deltas = append(deltas, AvailabilityDelta{
				AvailabilityID:    row.ID,
				Size:              row.DrumSize,
				DeliveryDate:      row.DeliveryDate,
				PreviousCapacity:  row.TotalCapacity,
				Capacity:          capacity,
				PreviousAvailable: row.AvailableCount,
				Available:         available,
			})
		}
	}
	return deltas, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay returns the final instant of t's calendar day. A subscription is
// honored through the whole of its end date.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

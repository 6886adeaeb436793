package subscriptions

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sorbetero/sorbetero-backend/pkg/db"
	"github.com/sorbetero/sorbetero-backend/pkg/db/models"
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	// one connection so the in-memory database is shared across queries
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&models.Vendor{},
		&models.Flavor{},
		&models.VendorDrumPricing{},
		&models.DailyDrumAvailability{},
		&models.Order{},
	))
	return conn
}

func newTestEngine(t *testing.T, conn *gorm.DB, now time.Time) *Engine {
	t.Helper()
	client, err := db.NewWithConn(conn)
	require.NoError(t, err)
	engine, err := NewEngine(EngineParams{DB: client, Now: func() time.Time { return now }})
	require.NoError(t, err)
	return engine
}

func mustCreateVendor(t *testing.T, conn *gorm.DB, plan enums.PlanTier, end *time.Time) *models.Vendor {
	t.Helper()
	limits := LimitsForTier(plan)
	vendor := &models.Vendor{
		Name:                "Aling Nena Sorbetes",
		Email:               fmt.Sprintf("vendor-%d@example.com", time.Now().UnixNano()),
		IsActive:            true,
		SubscriptionPlan:    plan,
		SubscriptionEndDate: end,
		FlavorLimit:         limits.Flavors.Encode(),
		DrumLimit:           limits.Drums.Encode(),
		OrderLimit:          limits.Orders.Encode(),
	}
	require.NoError(t, conn.Create(vendor).Error)
	return vendor
}

func mustCreateFlavor(t *testing.T, conn *gorm.DB, vendorID uint, status enums.StoreStatus, createdAt time.Time) *models.Flavor {
	t.Helper()
	flavor := &models.Flavor{
		VendorID:    vendorID,
		Name:        fmt.Sprintf("ube-%d", createdAt.UnixNano()),
		BasePrice:   decimal.NewFromInt(120),
		StoreStatus: status,
	}
	require.NoError(t, conn.Create(flavor).Error)
	// pin creation time explicitly; autoCreateTime would collapse ties
	require.NoError(t, conn.Model(flavor).Update("created_at", createdAt).Error)
	flavor.CreatedAt = createdAt
	return flavor
}

func mustCreateDrumRow(t *testing.T, conn *gorm.DB, vendorID uint, size enums.DrumSize, stock int) *models.VendorDrumPricing {
	t.Helper()
	row := &models.VendorDrumPricing{
		VendorID: vendorID,
		DrumSize: size,
		Price:    decimal.NewFromInt(900),
		Stock:    stock,
		Gallons:  3,
	}
	require.NoError(t, conn.Create(row).Error)
	return row
}

func mustCreateAvailability(t *testing.T, conn *gorm.DB, vendorID uint, size enums.DrumSize, date time.Time, total, reserved, booked int) *models.DailyDrumAvailability {
	t.Helper()
	row := &models.DailyDrumAvailability{
		VendorID:       vendorID,
		DrumSize:       size,
		DeliveryDate:   date,
		TotalCapacity:  total,
		ReservedCount:  reserved,
		BookedCount:    booked,
		AvailableCount: max(0, total-reserved-booked),
	}
	require.NoError(t, conn.Create(row).Error)
	return row
}

func TestDowngradeResetsVendorToFreeLimits(t *testing.T) {
	conn := openTestDB(t)
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	vendor := mustCreateVendor(t, conn, enums.PlanTierPremium, &yesterday)

	engine := newTestEngine(t, conn, now)
	result, err := engine.Downgrade(context.Background(), vendor.ID)
	require.NoError(t, err)
	require.True(t, result.Applied)

	var reloaded models.Vendor
	require.NoError(t, conn.First(&reloaded, "vendor_id = ?", vendor.ID).Error)
	require.Equal(t, enums.PlanTierFree, reloaded.SubscriptionPlan)
	require.Equal(t, FreeFlavorLimit, reloaded.FlavorLimit)
	require.Equal(t, FreeDrumLimit, reloaded.DrumLimit)
	require.Equal(t, FreeOrderLimit, reloaded.OrderLimit)
	require.NotNil(t, reloaded.SubscriptionStartDate)
}

func TestDowngradeSkipsFreeVendor(t *testing.T) {
	conn := openTestDB(t)
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	vendor := mustCreateVendor(t, conn, enums.PlanTierFree, nil)

	engine := newTestEngine(t, conn, now)
	result, err := engine.Downgrade(context.Background(), vendor.ID)
	require.NoError(t, err)
	require.False(t, result.Applied)
	require.Empty(t, result.LockedFlavorIDs)
	require.Empty(t, result.StockDeltas)
}

func TestDowngradeKeepsNewestPublishedFlavors(t *testing.T) {
	conn := openTestDB(t)
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	vendor := mustCreateVendor(t, conn, enums.PlanTierProfessional, &yesterday)

	base := now.AddDate(0, 0, -30)
	flavors := make([]*models.Flavor, 8)
	for i := range flavors {
		flavors[i] = mustCreateFlavor(t, conn, vendor.ID, enums.StoreStatusPublished, base.Add(time.Duration(i)*time.Hour))
	}

	engine := newTestEngine(t, conn, now)
	result, err := engine.Downgrade(context.Background(), vendor.ID)
	require.NoError(t, err)
	require.True(t, result.Applied)

	// oldest three demoted, newest five stay published
	require.Len(t, result.LockedFlavorIDs, 3)
	for i, flavor := range flavors {
		var reloaded models.Flavor
		require.NoError(t, conn.First(&reloaded, "flavor_id = ?", flavor.ID).Error)
		if i < 3 {
			require.Equal(t, enums.StoreStatusReady, reloaded.StoreStatus, "flavor %d", i)
			require.True(t, reloaded.LockedBySubscription, "flavor %d", i)
		} else {
			require.Equal(t, enums.StoreStatusPublished, reloaded.StoreStatus, "flavor %d", i)
			require.False(t, reloaded.LockedBySubscription, "flavor %d", i)
		}
	}
}

func TestDowngradeFlavorTieBrokenByHigherID(t *testing.T) {
	conn := openTestDB(t)
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	vendor := mustCreateVendor(t, conn, enums.PlanTierProfessional, &yesterday)

	sameInstant := now.AddDate(0, 0, -10)
	flavors := make([]*models.Flavor, 6)
	for i := range flavors {
		flavors[i] = mustCreateFlavor(t, conn, vendor.ID, enums.StoreStatusPublished, sameInstant)
	}

	engine := newTestEngine(t, conn, now)
	result, err := engine.Downgrade(context.Background(), vendor.ID)
	require.NoError(t, err)

	// all share a created_at; the lowest id loses
	require.Equal(t, []uint{flavors[0].ID}, result.LockedFlavorIDs)
}

func TestDowngradeUntouchedWhenPublishedWithinLimit(t *testing.T) {
	conn := openTestDB(t)
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	vendor := mustCreateVendor(t, conn, enums.PlanTierProfessional, &yesterday)

	for i := 0; i < 4; i++ {
		mustCreateFlavor(t, conn, vendor.ID, enums.StoreStatusPublished, now.AddDate(0, 0, -i-1))
	}

	engine := newTestEngine(t, conn, now)
	result, err := engine.Downgrade(context.Background(), vendor.ID)
	require.NoError(t, err)
	require.True(t, result.Applied)
	require.Empty(t, result.LockedFlavorIDs)

	var published int64
	require.NoError(t, conn.Model(&models.Flavor{}).
		Where("vendor_id = ? AND store_status = ?", vendor.ID, enums.StoreStatusPublished).
		Count(&published).Error)
	require.EqualValues(t, 4, published)
}

func TestDowngradeReducesDrumStockWithFloors(t *testing.T) {
	conn := openTestDB(t)
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	vendor := mustCreateVendor(t, conn, enums.PlanTierPremium, &yesterday)

	mustCreateDrumRow(t, conn, vendor.ID, enums.DrumSizeSmall, 10)
	mustCreateDrumRow(t, conn, vendor.ID, enums.DrumSizeMedium, 10)
	mustCreateDrumRow(t, conn, vendor.ID, enums.DrumSizeLarge, 10)

	engine := newTestEngine(t, conn, now)
	_, err := engine.Downgrade(context.Background(), vendor.ID)
	require.NoError(t, err)

	// large is cut to its floor first, then medium, then small absorbs the rest
	require.Equal(t, 3, drumStock(t, conn, vendor.ID, enums.DrumSizeSmall))
	require.Equal(t, 1, drumStock(t, conn, vendor.ID, enums.DrumSizeMedium))
	require.Equal(t, 1, drumStock(t, conn, vendor.ID, enums.DrumSizeLarge))
}

func TestDowngradeClampsFutureAvailability(t *testing.T) {
	conn := openTestDB(t)
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	vendor := mustCreateVendor(t, conn, enums.PlanTierPremium, &yesterday)

	mustCreateDrumRow(t, conn, vendor.ID, enums.DrumSizeLarge, 10)
	future := now.AddDate(0, 0, 3)
	past := now.AddDate(0, 0, -3)
	futureRow := mustCreateAvailability(t, conn, vendor.ID, enums.DrumSizeLarge, future, 8, 3, 1)
	pastRow := mustCreateAvailability(t, conn, vendor.ID, enums.DrumSizeLarge, past, 8, 3, 1)

	engine := newTestEngine(t, conn, now)
	result, err := engine.Downgrade(context.Background(), vendor.ID)
	require.NoError(t, err)

	// stock drops 10 -> 5 (single active size keeps the whole limit);
	// capacity clamps to max(5, committed 4) = 5, available 5-4 = 1
	var reloaded models.DailyDrumAvailability
	require.NoError(t, conn.First(&reloaded, "availability_id = ?", futureRow.ID).Error)
	require.Equal(t, 5, reloaded.TotalCapacity)
	require.Equal(t, 1, reloaded.AvailableCount)
	require.GreaterOrEqual(t, reloaded.TotalCapacity, reloaded.ReservedCount+reloaded.BookedCount)

	// past rows stay untouched
	var untouched models.DailyDrumAvailability
	require.NoError(t, conn.First(&untouched, "availability_id = ?", pastRow.ID).Error)
	require.Equal(t, 8, untouched.TotalCapacity)

	require.Len(t, result.AvailabilityDeltas, 1)
	require.Equal(t, futureRow.ID, result.AvailabilityDeltas[0].AvailabilityID)
}

func TestDowngradeNeverShrinksBelowCommitments(t *testing.T) {
	conn := openTestDB(t)
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	vendor := mustCreateVendor(t, conn, enums.PlanTierPremium, &yesterday)

	mustCreateDrumRow(t, conn, vendor.ID, enums.DrumSizeLarge, 10)
	future := now.AddDate(0, 0, 2)
	// committed 3+1=4 exceeds the new stock of... capacity clamps to 4
	row := mustCreateAvailability(t, conn, vendor.ID, enums.DrumSizeLarge, future, 8, 3, 1)

	// shrink stock to 2 via a tighter scenario: two more sizes eat the limit
	mustCreateDrumRow(t, conn, vendor.ID, enums.DrumSizeSmall, 10)
	mustCreateDrumRow(t, conn, vendor.ID, enums.DrumSizeMedium, 10)

	engine := newTestEngine(t, conn, now)
	_, err := engine.Downgrade(context.Background(), vendor.ID)
	require.NoError(t, err)

	// large ends at its floor of 1; capacity clamps to committed 4, never below
	var reloaded models.DailyDrumAvailability
	require.NoError(t, conn.First(&reloaded, "availability_id = ?", row.ID).Error)
	require.Equal(t, 4, reloaded.TotalCapacity)
	require.Equal(t, 0, reloaded.AvailableCount)
}

func TestDowngradeIsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	vendor := mustCreateVendor(t, conn, enums.PlanTierPremium, &yesterday)

	base := now.AddDate(0, 0, -30)
	for i := 0; i < 8; i++ {
		mustCreateFlavor(t, conn, vendor.ID, enums.StoreStatusPublished, base.Add(time.Duration(i)*time.Hour))
	}
	mustCreateDrumRow(t, conn, vendor.ID, enums.DrumSizeSmall, 10)
	mustCreateDrumRow(t, conn, vendor.ID, enums.DrumSizeMedium, 10)
	mustCreateDrumRow(t, conn, vendor.ID, enums.DrumSizeLarge, 10)

	engine := newTestEngine(t, conn, now)
	first, err := engine.Downgrade(context.Background(), vendor.ID)
	require.NoError(t, err)
	require.True(t, first.Applied)

	second, err := engine.Downgrade(context.Background(), vendor.ID)
	require.NoError(t, err)
	require.False(t, second.Applied)
	require.Empty(t, second.LockedFlavorIDs)
	require.Empty(t, second.StockDeltas)
	require.Empty(t, second.AvailabilityDeltas)
}

func TestAllocateDrumStock(t *testing.T) {
	cases := []struct {
		name  string
		stock map[enums.DrumSize]int
		limit int
		want  map[enums.DrumSize]int
	}{
		{
			name:  "within limit untouched",
			stock: map[enums.DrumSize]int{enums.DrumSizeSmall: 2, enums.DrumSizeMedium: 2, enums.DrumSizeLarge: 1},
			limit: 5,
			want:  map[enums.DrumSize]int{enums.DrumSizeSmall: 2, enums.DrumSizeMedium: 2, enums.DrumSizeLarge: 1},
		},
		{
			name:  "all sizes active cuts large first",
			stock: map[enums.DrumSize]int{enums.DrumSizeSmall: 10, enums.DrumSizeMedium: 10, enums.DrumSizeLarge: 10},
			limit: 5,
			want:  map[enums.DrumSize]int{enums.DrumSizeSmall: 3, enums.DrumSizeMedium: 1, enums.DrumSizeLarge: 1},
		},
		{
			name:  "single active size keeps whole limit",
			stock: map[enums.DrumSize]int{enums.DrumSizeSmall: 0, enums.DrumSizeMedium: 0, enums.DrumSizeLarge: 10},
			limit: 5,
			want:  map[enums.DrumSize]int{enums.DrumSizeSmall: 0, enums.DrumSizeMedium: 0, enums.DrumSizeLarge: 5},
		},
		{
			name:  "limit smaller than active sizes favors small",
			stock: map[enums.DrumSize]int{enums.DrumSizeSmall: 4, enums.DrumSizeMedium: 4, enums.DrumSizeLarge: 4},
			limit: 2,
			want:  map[enums.DrumSize]int{enums.DrumSizeSmall: 1, enums.DrumSizeMedium: 1, enums.DrumSizeLarge: 0},
		},
		{
			name:  "zero limit empties everything",
			stock: map[enums.DrumSize]int{enums.DrumSizeSmall: 3, enums.DrumSizeMedium: 0, enums.DrumSizeLarge: 2},
			limit: 0,
			want:  map[enums.DrumSize]int{enums.DrumSizeSmall: 0, enums.DrumSizeMedium: 0, enums.DrumSizeLarge: 0},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := allocateDrumStock(tc.stock, tc.limit)
			require.Equal(t, tc.want, got)
		})
	}
}

func drumStock(t *testing.T, conn *gorm.DB, vendorID uint, size enums.DrumSize) int {
	t.Helper()
	var row models.VendorDrumPricing
	require.NoError(t, conn.First(&row, "vendor_id = ? AND drum_size = ?", vendorID, size).Error)
	return row.Stock
}

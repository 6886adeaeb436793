package drums

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sorbetero/sorbetero-backend/pkg/db/models"
	"github.com/sorbetero/sorbetero-backend/pkg/enums"
)

func TestListFutureFiltersAndOrders(t *testing.T) {
	conn := openTestDB(t)
	repo := NewAvailabilityRepository(conn)
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	seed := []models.DailyDrumAvailability{
		{VendorID: 1, DrumSize: enums.DrumSizeSmall, DeliveryDate: now.AddDate(0, 0, 3), TotalCapacity: 5, AvailableCount: 5},
		{VendorID: 1, DrumSize: enums.DrumSizeSmall, DeliveryDate: now.AddDate(0, 0, -1), TotalCapacity: 5, AvailableCount: 5},
		{VendorID: 1, DrumSize: enums.DrumSizeSmall, DeliveryDate: now.AddDate(0, 0, 1), TotalCapacity: 5, AvailableCount: 5},
		{VendorID: 1, DrumSize: enums.DrumSizeLarge, DeliveryDate: now.AddDate(0, 0, 2), TotalCapacity: 5, AvailableCount: 5},
		{VendorID: 2, DrumSize: enums.DrumSizeSmall, DeliveryDate: now.AddDate(0, 0, 2), TotalCapacity: 5, AvailableCount: 5},
	}
	for i := range seed {
		require.NoError(t, conn.Create(&seed[i]).Error)
	}

	rows, err := repo.ListFuture(context.Background(), 1, enums.DrumSizeSmall, now)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.True(t, rows[0].DeliveryDate.Before(rows[1].DeliveryDate))
}

func TestUpdateCapacityRewritesOneRow(t *testing.T) {
	conn := openTestDB(t)
	repo := NewAvailabilityRepository(conn)
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	row := models.DailyDrumAvailability{
		VendorID: 1, DrumSize: enums.DrumSizeMedium,
		DeliveryDate:  now.AddDate(0, 0, 1),
		TotalCapacity: 8, ReservedCount: 2, BookedCount: 1, AvailableCount: 5,
	}
	require.NoError(t, conn.Create(&row).Error)

	other := models.DailyDrumAvailability{
		VendorID: 1, DrumSize: enums.DrumSizeMedium,
		DeliveryDate:  now.AddDate(0, 0, 2),
		TotalCapacity: 8, ReservedCount: 0, BookedCount: 0, AvailableCount: 8,
	}
	require.NoError(t, conn.Create(&other).Error)

	require.NoError(t, repo.UpdateCapacity(context.Background(), row.ID, 3, 0))

	var got models.DailyDrumAvailability
	require.NoError(t, conn.First(&got, "availability_id = ?", row.ID).Error)
	require.Equal(t, 3, got.TotalCapacity)
	require.Equal(t, 0, got.AvailableCount)

	var untouched models.DailyDrumAvailability
	require.NoError(t, conn.First(&untouched, "availability_id = ?", other.ID).Error)
	require.Equal(t, 8, untouched.TotalCapacity)
}

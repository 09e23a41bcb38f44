package parking_test

import (
	"context"
	"sync"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"campark/internal/lot"
)

func TestClaimSpotConcurrent_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	repo := lot.NewRepository(db)
	ctx := context.Background()

	lotID := createTestLot(t, db, "Central Deck", 200)
	spotID := createTestSpot(t, db, lotID, "A", "A-01", "available")

	// Race ten claimants at one spot. The conditional UPDATE lets exactly
	// one of them through.
	const claimants = 10
	var wg sync.WaitGroup
	errs := make([]error, claimants)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.ClaimSpot(ctx, spotID)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.Equal(t, lot.ErrSpotUnavailable, err)
		}
	}
	require.Equal(t, 1, winners)

	spot, err := repo.GetSpotByID(ctx, spotID)
	require.NoError(t, err)
	require.Equal(t, lot.StatusOccupied, spot.Status)
}

func TestSpotLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	repo := lot.NewRepository(db)
	ctx := context.Background()

	lotID := createTestLot(t, db, "Central Deck", 200)
	spotID := createTestSpot(t, db, lotID, "A", "A-01", "available")

	require.NoError(t, repo.ClaimSpot(ctx, spotID))

	// Claiming an occupied spot fails.
	require.Equal(t, lot.ErrSpotUnavailable, repo.ClaimSpot(ctx, spotID))

	require.NoError(t, repo.ReleaseSpot(ctx, spotID))
	spot, err := repo.GetSpotByID(ctx, spotID)
	require.NoError(t, err)
	require.Equal(t, lot.StatusAvailable, spot.Status)

	// Disabled spots are never claimable.
	_, err = repo.SetStatus(ctx, spotID, lot.StatusDisabled)
	require.NoError(t, err)
	require.Equal(t, lot.ErrSpotUnavailable, repo.ClaimSpot(ctx, spotID))
}

func TestLotMap_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	repo := lot.NewRepository(db)
	ctx := context.Background()

	lotID := createTestLot(t, db, "Central Deck", 200)
	createTestSpot(t, db, lotID, "B", "B-01", "occupied")
	createTestSpot(t, db, lotID, "A", "A-01", "available")
	createTestSpot(t, db, lotID, "A", "A-02", "disabled")

	spots, err := repo.GetSpotsByLot(ctx, lotID)
	require.NoError(t, err)

	view := lot.GroupByRow(lotID, spots)
	require.Equal(t, 3, view.Total)
	require.Equal(t, 1, view.Available)
	require.Equal(t, 1, view.Occupied)
	require.Len(t, view.Rows, 2)
	require.Equal(t, "A", view.Rows[0].RowID)
	require.Equal(t, "B", view.Rows[1].RowID)
}

package repository

import (
	"testing"
	"time"

	"birdid/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSightingRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewSightingRepository(db)

	lat, lng := 52.52, 13.405
	sighting := &models.Sighting{
		UserID:    1,
		BirdName:  "European Robin",
		Location:  "Tiergarten, Berlin",
		Latitude:  &lat,
		Longitude: &lng,
		Notes:     "singing from a low branch",
		SightedAt: time.Date(2024, 5, 1, 7, 15, 0, 0, time.UTC),
	}
	require.NoError(t, repo.CreateSighting(sighting))
	assert.NotZero(t, sighting.ID)

	t.Run("Round-trips all fields", func(t *testing.T) {
		loaded, err := repo.GetSightingByID(sighting.ID)
		assert.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, "European Robin", loaded.BirdName)
		assert.Equal(t, "Tiergarten, Berlin", loaded.Location)
		require.NotNil(t, loaded.Latitude)
		assert.InDelta(t, lat, *loaded.Latitude, 1e-9)
	})

	t.Run("Not found returns nil without an error", func(t *testing.T) {
		loaded, err := repo.GetSightingByID(9999)
		assert.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("Sighting without a user is rejected", func(t *testing.T) {
		assert.Error(t, repo.CreateSighting(&models.Sighting{BirdName: "Robin"}))
	})

	t.Run("Nil sighting is rejected", func(t *testing.T) {
		assert.Error(t, repo.CreateSighting(nil))
	})
}

func TestSightingRepository_GetSightingsByUserID(t *testing.T) {
	db := newTestDB(t)
	repo := NewSightingRepository(db)

	base := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)
	names := []string{"Robin", "Swift", "Swallow", "Starling"}
	for i, name := range names {
		require.NoError(t, repo.CreateSighting(&models.Sighting{
			UserID:    1,
			BirdName:  name,
			SightedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, repo.CreateSighting(&models.Sighting{
		UserID:    2,
		BirdName:  "Magpie",
		SightedAt: base.Add(10 * time.Hour),
	}))

	t.Run("Bounded limit returns the newest N by sighting time", func(t *testing.T) {
		sightings, err := repo.GetSightingsByUserID(1, models.Bounded(2))
		assert.NoError(t, err)
		require.Len(t, sightings, 2)
		assert.Equal(t, "Starling", sightings[0].BirdName)
		assert.Equal(t, "Swallow", sightings[1].BirdName)
	})

	t.Run("Unbounded limit returns everything, other users excluded", func(t *testing.T) {
		sightings, err := repo.GetSightingsByUserID(1, models.Unlimited)
		assert.NoError(t, err)
		assert.Len(t, sightings, len(names))
	})

	t.Run("CountByUserID scopes to the user", func(t *testing.T) {
		count, err := repo.CountByUserID(1)
		assert.NoError(t, err)
		assert.Equal(t, int64(len(names)), count)

		count, err = repo.CountByUserID(2)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestSightingRepository_UpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewSightingRepository(db)

	sighting := &models.Sighting{
		UserID:    1,
		BirdName:  "Robin",
		SightedAt: time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.CreateSighting(sighting))

	t.Run("Update persists field changes", func(t *testing.T) {
		sighting.Notes = "corrected: it was a redstart"
		sighting.BirdName = "Common Redstart"
		require.NoError(t, repo.UpdateSighting(sighting))

		loaded, err := repo.GetSightingByID(sighting.ID)
		assert.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, "Common Redstart", loaded.BirdName)
		assert.Equal(t, "corrected: it was a redstart", loaded.Notes)
	})

	t.Run("Update without an ID is rejected", func(t *testing.T) {
		assert.Error(t, repo.UpdateSighting(&models.Sighting{UserID: 1, BirdName: "Robin"}))
	})

	t.Run("Delete removes the record", func(t *testing.T) {
		require.NoError(t, repo.DeleteSighting(sighting.ID))
		loaded, err := repo.GetSightingByID(sighting.ID)
		assert.NoError(t, err)
		assert.Nil(t, loaded)
	})
}

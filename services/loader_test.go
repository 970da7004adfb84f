package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"epi-etl/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func day(d int) time.Time {
	return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC)
}

// newEpisode legt Land X mit einer COVID-Episode an.
func newEpisode(t *testing.T, db *gorm.DB) uint {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, SeedDiseases(ctx, db, zaptest.NewLogger(t)))
	countries, err := NewReconciler(db, zaptest.NewLogger(t)).Reconcile(ctx, []CountryCandidate{{Name: "X"}})
	require.NoError(t, err)
	diseases, err := DiseaseIDs(ctx, db, DiseaseCOVID)
	require.NoError(t, err)
	id, err := NewBinder(db, zaptest.NewLogger(t)).Bind(ctx, countries["X"], diseases[DiseaseCOVID], day(1))
	require.NoError(t, err)
	return id
}

func TestLoadStatisticsSkipsExistingDays(t *testing.T) {
	db := newTestDB(t)
	episodeID := newEpisode(t, db)
	l := NewLoader(db, zaptest.NewLogger(t))
	ctx := context.Background()

	res, err := l.LoadStatistics(ctx, episodeID, []Observation{
		{Date: day(1), TotalCases: 1, NewCases: 1, CasesPerMillion: 0.5},
		{Date: day(2), TotalCases: 3, NewCases: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Inserted: 2}, res)

	res, err = l.LoadStatistics(ctx, episodeID, []Observation{
		{Date: day(3), TotalCases: 6, NewCases: 3},
		{Date: day(2), TotalCases: 99},
		{Date: day(1), TotalCases: 99},
	})
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Inserted: 1, Skipped: 2}, res)

	assert.EqualValues(t, 3, countRows(t, db, &models.DailyStatistic{}))
	assert.EqualValues(t, 3, countRows(t, db, &models.DetailedStatistic{}), "every statistic has exactly one detail row")

	var second models.DailyStatistic
	require.NoError(t, db.Preload("Detail").Where("episode_id = ? AND total_cases = ?", episodeID, 3).First(&second).Error)
	assert.Equal(t, int64(2), second.NewCases, "existing day is not overwritten")
	require.NotNil(t, second.Detail)

	var none int64
	require.NoError(t, db.Model(&models.DailyStatistic{}).Where("total_cases = ?", 99).Count(&none).Error)
	assert.Zero(t, none)
}

func TestLoadStatisticsDuplicateDateInInput(t *testing.T) {
	db := newTestDB(t)
	episodeID := newEpisode(t, db)

	res, err := NewLoader(db, zaptest.NewLogger(t)).LoadStatistics(context.Background(), episodeID, []Observation{
		{Date: day(1), TotalCases: 1},
		{Date: day(1), TotalCases: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Inserted: 1, Skipped: 1}, res)
	assert.EqualValues(t, 1, countRows(t, db, &models.DailyStatistic{}))
}

func TestLoadStatisticsOrderDoesNotMatter(t *testing.T) {
	obs := []Observation{
		{Date: day(3), TotalCases: 6},
		{Date: day(1), TotalCases: 1},
		{Date: day(2), TotalCases: 3},
	}
	reversed := []Observation{obs[2], obs[1], obs[0]}

	totals := func(t *testing.T, in []Observation) []int64 {
		t.Helper()
		db := newTestDB(t)
		episodeID := newEpisode(t, db)
		_, err := NewLoader(db, zaptest.NewLogger(t)).LoadStatistics(context.Background(), episodeID, in)
		require.NoError(t, err)
		var out []int64
		require.NoError(t, db.Model(&models.DailyStatistic{}).Order("observed_on").Pluck("total_cases", &out).Error)
		return out
	}
	t.Run("forward", func(t *testing.T) { assert.Equal(t, []int64{1, 3, 6}, totals(t, obs)) })
	t.Run("reversed", func(t *testing.T) { assert.Equal(t, []int64{1, 3, 6}, totals(t, reversed)) })
}

func TestLoadStatisticsRejectsZeroEpisode(t *testing.T) {
	db := newTestDB(t)
	_, err := NewLoader(db, zaptest.NewLogger(t)).LoadStatistics(context.Background(), 0, []Observation{{Date: day(1)}})
	assert.Error(t, err)
}

func TestLoadStatisticsRollsBackOnFailure(t *testing.T) {
	db := newTestDB(t)
	episodeID := newEpisode(t, db)

	details := 0
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_second_detail", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*models.DetailedStatistic); ok {
			details++
			if details == 2 {
				tx.AddError(errors.New("disk full"))
			}
		}
	}))

	res, err := NewLoader(db, zaptest.NewLogger(t)).LoadStatistics(context.Background(), episodeID, []Observation{
		{Date: day(1), TotalCases: 1},
		{Date: day(2), TotalCases: 3},
		{Date: day(3), TotalCases: 6},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2020-01-02")
	assert.Equal(t, LoadResult{}, res)
	assert.EqualValues(t, 0, countRows(t, db, &models.DailyStatistic{}), "no partially loaded date range")
	assert.EqualValues(t, 0, countRows(t, db, &models.DetailedStatistic{}))
}

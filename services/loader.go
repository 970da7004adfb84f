package services

import (
	"context"
	"time"

	"epi-etl/models"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dayLayout = "2006-01-02"

// Observation sind die Kennzahlen eines Tages für eine Episode.
type Observation struct {
	Date           time.Time
	TotalCases     int64
	TotalDeaths    int64
	NewCases       int64
	NewDeaths      int64
	ActiveCases    int64
	RecoveredCases int64

	CasesPerMillion  float64
	DeathsPerMillion float64
	RollingAvgCases  float64
	RollingAvgDeaths float64
}

// LoadResult zählt eingefügte und übersprungene Tage.
type LoadResult struct {
	Inserted int
	Skipped  int
}

// Loader schreibt Tagesstatistiken einer Episode.
type Loader struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewLoader(db *gorm.DB, logger *zap.Logger) *Loader {
	return &Loader{DB: db, Logger: logger}
}

// LoadStatistics fügt pro noch nicht vorhandenem Tag eine DailyStatistic samt DetailedStatistic ein.
// Bereits geladene Tage und doppelte Tage der Eingabe werden übersprungen.
// Alle Zeilen einer Episode laufen in einer Transaktion.
func (l *Loader) LoadStatistics(ctx context.Context, episodeID uint, observations []Observation) (LoadResult, error) {
	var res LoadResult
	if episodeID == 0 {
		return res, eris.New("load statistics: episode id is zero")
	}
	log := l.Logger.With(zap.Uint("episode_id", episodeID))

	// nach Datum sortiert, damit die Reihenfolge der Eingabe keine Rolle spielt
	sorted := make([]Observation, len(observations))
	copy(sorted, observations)
	sortByDate(sorted)

	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []time.Time
		if err := tx.Model(&models.DailyStatistic{}).
			Where("episode_id = ?", episodeID).
			Pluck("observed_on", &existing).Error; err != nil {
			return eris.Wrapf(err, "lookup statistics for episode %d", episodeID)
		}
		seen := make(map[string]struct{}, len(existing)+len(sorted))
		for _, d := range existing {
			seen[d.UTC().Format(dayLayout)] = struct{}{}
		}

		for _, o := range sorted {
			key := o.Date.UTC().Format(dayLayout)
			if _, ok := seen[key]; ok {
				log.Debug("Statistic already present, skipping", zap.String("date", key))
				res.Skipped++
				continue
			}
			seen[key] = struct{}{}

			day := time.Date(o.Date.Year(), o.Date.Month(), o.Date.Day(), 0, 0, 0, 0, time.UTC)
			stat := models.DailyStatistic{
				EpisodeID:      episodeID,
				ObservedOn:     day,
				TotalCases:     o.TotalCases,
				TotalDeaths:    o.TotalDeaths,
				NewCases:       o.NewCases,
				NewDeaths:      o.NewDeaths,
				ActiveCases:    o.ActiveCases,
				RecoveredCases: o.RecoveredCases,
			}
			if err := tx.Omit("Detail").Create(&stat).Error; err != nil {
				return eris.Wrapf(err, "insert statistic episode=%d date=%s", episodeID, key)
			}
			detail := models.DetailedStatistic{
				DailyStatisticID: stat.ID,
				CasesPerMillion:  o.CasesPerMillion,
				DeathsPerMillion: o.DeathsPerMillion,
				RollingAvgCases:  o.RollingAvgCases,
				RollingAvgDeaths: o.RollingAvgDeaths,
			}
			if err := tx.Create(&detail).Error; err != nil {
				return eris.Wrapf(err, "insert detailed statistic episode=%d date=%s", episodeID, key)
			}
			res.Inserted++
		}
		return nil
	})
	if err != nil {
		log.Error("Statistics load rolled back", zap.Int("observations", len(observations)), zap.Error(err))
		return LoadResult{}, err
	}

	log.Debug("Statistics loaded", zap.Int("inserted", res.Inserted), zap.Int("skipped", res.Skipped))
	return res, nil
}

package services

import (
	"context"
	"errors"
	"time"

	"epi-etl/models"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Binder verknüpft Land und Krankheit zu einer Episode.
type Binder struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewBinder(db *gorm.DB, logger *zap.Logger) *Binder {
	return &Binder{DB: db, Logger: logger}
}

// Bind liefert die Episode zu (Land, Krankheit) und legt sie bei Bedarf mit Status "ongoing" an.
// Eine vorhandene Episode wird nicht verändert, auch wenn firstCase abweicht.
// countryID muss aus einem bereits committeten Reconcile stammen.
func (b *Binder) Bind(ctx context.Context, countryID, diseaseID uint, firstCase time.Time) (uint, error) {
	if countryID == 0 || diseaseID == 0 {
		return 0, eris.Errorf("bind episode: invalid identity country=%d disease=%d", countryID, diseaseID)
	}
	if firstCase.IsZero() {
		return 0, eris.Errorf("bind episode: missing first case date for country=%d disease=%d", countryID, diseaseID)
	}
	db := b.DB.WithContext(ctx)

	var ep models.Episode
	err := db.Where("country_id = ? AND disease_id = ?", countryID, diseaseID).First(&ep).Error
	if err == nil {
		return ep.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, eris.Wrapf(err, "lookup episode country=%d disease=%d", countryID, diseaseID)
	}

	ep = models.Episode{
		CountryID:     countryID,
		DiseaseID:     diseaseID,
		FirstCaseDate: firstCase,
		Status:        models.EpisodeStatusOngoing,
	}
	if err := db.Omit(clause.Associations).Create(&ep).Error; err != nil {
		return 0, eris.Wrapf(err, "insert episode country=%d disease=%d", countryID, diseaseID)
	}
	b.Logger.Debug("Episode created",
		zap.Uint("episode_id", ep.ID),
		zap.Uint("country_id", countryID),
		zap.Uint("disease_id", diseaseID),
		zap.Time("first_case", firstCase))
	return ep.ID, nil
}

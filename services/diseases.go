package services

import (
	"context"
	"time"

	"epi-etl/models"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Natürliche Schlüssel der beiden Krankheiten.
const (
	DiseaseCOVID = "COVID-19"
	DiseaseMPOX  = "MPOX"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// DefaultDiseases ist die feste Referenzliste.
func DefaultDiseases() []models.Disease {
	return []models.Disease{
		{
			Name:                  DiseaseCOVID,
			Description:           "Infectious disease caused by the SARS-CoV-2 coronavirus",
			AvgFatalityRate:       2.5,
			FirstObserved:         datePtr(2019, time.December, 31),
			SurveillanceAuthority: "OMS",
		},
		{
			Name:                  DiseaseMPOX,
			Description:           "Zoonotic viral disease caused by the monkeypox virus",
			AvgFatalityRate:       0.1,
			FirstObserved:         datePtr(2022, time.May, 6),
			SurveillanceAuthority: "OMS",
		},
	}
}

// SeedDiseases legt fehlende Krankheiten an. Vorhandene Zeilen bleiben unverändert.
func SeedDiseases(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	seeded := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range DefaultDiseases() {
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoNothing: true,
			}).Create(&d)
			if res.Error != nil {
				return eris.Wrapf(res.Error, "seed disease %q", d.Name)
			}
			seeded += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to seed diseases", zap.Error(err))
		return err
	}
	logger.Info("Diseases seeded", zap.Int("inserted", seeded))
	return nil
}

// DiseaseIDs löst Krankheiten über ihren Namen auf. Ein fehlender Name ist ein Fehler.
func DiseaseIDs(ctx context.Context, db *gorm.DB, names ...string) (map[string]uint, error) {
	var rows []models.Disease
	if err := db.WithContext(ctx).Where("name IN ?", names).Find(&rows).Error; err != nil {
		return nil, eris.Wrap(err, "lookup diseases")
	}
	ids := make(map[string]uint, len(rows))
	for _, d := range rows {
		ids[d.Name] = d.ID
	}
	for _, n := range names {
		if _, ok := ids[n]; !ok {
			return nil, eris.Errorf("disease %q is not seeded", n)
		}
	}
	return ids, nil
}

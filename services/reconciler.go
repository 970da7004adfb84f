package services

import (
	"context"
	"errors"

	"epi-etl/models"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reconciler gleicht Länderkandidaten mit der Tabelle countries ab.
type Reconciler struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewReconciler(db *gorm.DB, logger *zap.Logger) *Reconciler {
	return &Reconciler{DB: db, Logger: logger}
}

// Reconcile legt fehlende Länder an und ergänzt bei vorhandenen nur Attribute, die noch NULL sind.
// Ein einmal gesetztes Attribut wird nie überschrieben oder geleert. Alle Änderungen laufen
// in einer Transaktion; bei einem Fehler wird nichts übernommen.
func (r *Reconciler) Reconcile(ctx context.Context, candidates []CountryCandidate) (map[string]uint, error) {
	ids := make(map[string]uint, len(candidates))
	if len(candidates) == 0 {
		return ids, nil
	}
	var created, enriched int

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range candidates {
			log := r.Logger.With(zap.String("country", c.Name))

			var existing models.Country
			err := tx.Where("name = ?", c.Name).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				country := models.Country{Name: c.Name}
				if present(c.GeoCode) {
					country.GeoCode = c.GeoCode
				}
				if present(c.Region) {
					country.Region = c.Region
				}
				if err := tx.Omit("Episodes").Create(&country).Error; err != nil {
					return eris.Wrapf(err, "insert country %q", c.Name)
				}
				log.Debug("Country created")
				ids[c.Name] = country.ID
				created++
				continue
			}
			if err != nil {
				return eris.Wrapf(err, "lookup country %q", c.Name)
			}

			updates := map[string]any{}
			if existing.GeoCode == nil && present(c.GeoCode) {
				updates["geo_code"] = *c.GeoCode
			}
			if existing.Region == nil && present(c.Region) {
				updates["region"] = *c.Region
			}
			if len(updates) > 0 {
				if err := tx.Model(&existing).Updates(updates).Error; err != nil {
					return eris.Wrapf(err, "enrich country %q", c.Name)
				}
				log.Info("Country enriched", zap.Any("fields", updates))
				enriched++
			}
			ids[c.Name] = existing.ID
		}
		return nil
	})
	if err != nil {
		r.Logger.Error("Country reconciliation rolled back", zap.Int("candidates", len(candidates)), zap.Error(err))
		return nil, err
	}

	countriesCreated.Add(float64(created))
	countriesEnriched.Add(float64(enriched))
	r.Logger.Info("Countries reconciled",
		zap.Int("candidates", len(candidates)),
		zap.Int("created", created),
		zap.Int("enriched", enriched))
	return ids, nil
}

package transformers

import (
	"strings"

	"epi-etl/batch"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// countryAliases vereinheitlicht Ländernamen, die die Quellen unterschiedlich schreiben.
var countryAliases = map[string]string{
	"US":  "United States",
	"USA": "United States",
	"UK":  "United Kingdom",
}

// NormalizeCountry bringt einen Ländernamen in die kanonische Form (NFC, Whitespace, Aliase).
func NormalizeCountry(name string) string {
	name = norm.NFC.String(name)
	name = strings.Join(strings.Fields(name), " ")
	if canonical, ok := countryAliases[name]; ok {
		return canonical
	}
	return name
}

// Cleaner normalisiert Ländernamen und verwirft Zeilen mit negativen Kennzahlen.
type Cleaner struct {
	logger *zap.Logger
}

func NewCleaner(logger *zap.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

func (c *Cleaner) Transform(b *batch.Batch, cfg ColumnConfig) (*batch.Batch, error) {
	if err := requireColumns(b, cfg); err != nil {
		return nil, err
	}
	log := c.logger.With(zap.String("source", cfg.Source))

	// Kopie, der Eingabe-Batch bleibt unverändert
	cleaned := b.Filter(func(int) bool { return true })
	for i := 0; i < cleaned.Len(); i++ {
		cleaned.SetString(i, cfg.CountryColumn, NormalizeCountry(cleaned.String(i, cfg.CountryColumn)))
		for _, opt := range []string{cfg.GeoCodeColumn, cfg.RegionColumn} {
			if opt != "" {
				cleaned.SetString(i, opt, strings.TrimSpace(cleaned.String(i, opt)))
			}
		}
	}

	var noCountry, negative int
	out := cleaned.Filter(func(i int) bool {
		if cleaned.String(i, cfg.CountryColumn) == "" {
			noCountry++
			return false
		}
		for _, col := range cfg.NumericColumns {
			if cleaned.Number(i, col) < 0 {
				negative++
				return false
			}
		}
		return true
	})

	log.Info("Cleaning finished",
		zap.Int("rows", out.Len()),
		zap.Int("dropped_without_country", noCountry),
		zap.Int("dropped_negative", negative))
	return out, nil
}

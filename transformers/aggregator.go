package transformers

import (
	"time"

	"epi-etl/batch"

	"go.uber.org/zap"
)

// Aggregator summiert Kennzahlen pro (Datum, Land). Regionale Unterzeilen einer
// Quelle werden so zu einer Zeile pro Land und Tag.
type Aggregator struct {
	logger *zap.Logger
}

func NewAggregator(logger *zap.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

type dayKey struct {
	country string
	date    time.Time
}

// Transform liefert die Spalten Land, Datum, optionale Attribute und NumericColumns,
// sortiert nach Land und Datum. Ohne AggregateByCountry wird der Batch unverändert zurückgegeben.
func (a *Aggregator) Transform(b *batch.Batch, cfg ColumnConfig) (*batch.Batch, error) {
	if !cfg.AggregateByCountry {
		return b, nil
	}
	if err := requireColumns(b, cfg); err != nil {
		return nil, err
	}

	columns := []batch.Column{
		{Name: cfg.CountryColumn, Kind: batch.Text},
		{Name: cfg.DateColumn, Kind: batch.Date},
	}
	var attrs []string
	for _, opt := range []string{cfg.GeoCodeColumn, cfg.RegionColumn} {
		if opt != "" {
			attrs = append(attrs, opt)
			columns = append(columns, batch.Column{Name: opt, Kind: batch.Text})
		}
	}
	for _, n := range cfg.NumericColumns {
		columns = append(columns, batch.Column{Name: n, Kind: batch.Number})
	}

	// erstes nicht-leeres Attribut pro Land
	firstAttr := map[string]map[string]string{}
	sums := map[dayKey][]float64{}
	var order []dayKey

	for i := 0; i < b.Len(); i++ {
		country := b.String(i, cfg.CountryColumn)
		if firstAttr[country] == nil {
			firstAttr[country] = map[string]string{}
		}
		for _, attr := range attrs {
			if v := b.String(i, attr); v != "" {
				if _, ok := firstAttr[country][attr]; !ok {
					firstAttr[country][attr] = v
				}
			}
		}

		k := dayKey{country: country, date: b.Date(i, cfg.DateColumn)}
		acc, ok := sums[k]
		if !ok {
			acc = make([]float64, len(cfg.NumericColumns))
			order = append(order, k)
		}
		for j, n := range cfg.NumericColumns {
			acc[j] += b.Number(i, n)
		}
		sums[k] = acc
	}

	out := batch.New(columns...)
	for _, k := range order {
		values := []batch.Value{batch.TextValue(k.country), batch.DateValue(k.date)}
		for _, attr := range attrs {
			values = append(values, batch.TextValue(firstAttr[k.country][attr]))
		}
		for _, v := range sums[k] {
			values = append(values, batch.NumberValue(v))
		}
		if err := out.Append(values...); err != nil {
			return nil, err
		}
	}
	out.SortBy(cfg.CountryColumn, cfg.DateColumn)

	a.logger.Info("Aggregation finished",
		zap.String("source", cfg.Source),
		zap.Int("rows_in", b.Len()),
		zap.Int("rows_out", out.Len()))
	return out, nil
}

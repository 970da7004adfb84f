package transformers

import (
	"epi-etl/batch"
	"epi-etl/extractors"
)

// ColumnConfig beschreibt, welche Spalten einer Quelle welche Bedeutung haben.
type ColumnConfig struct {
	Source             string
	CountryColumn      string
	DateColumn         string
	GeoCodeColumn      string // optional
	RegionColumn       string // optional
	NumericColumns     []string
	AggregateByCountry bool
}

// Transformer ist eine Verarbeitungsstufe zwischen Extraktion und Laden.
type Transformer interface {
	Transform(b *batch.Batch, cfg ColumnConfig) (*batch.Batch, error)
}

// requireColumn prüft Existenz und Typ einer konfigurierten Spalte.
func requireColumn(b *batch.Batch, cfg ColumnConfig, name string, kind batch.Kind) error {
	got, ok := b.KindOf(name)
	if !ok {
		return &extractors.SchemaError{Source: cfg.Source, Column: name, Reason: "missing configured column"}
	}
	if got != kind {
		return &extractors.SchemaError{Source: cfg.Source, Column: name, Reason: "expected " + kind.String() + " column, got " + got.String()}
	}
	return nil
}

func requireColumns(b *batch.Batch, cfg ColumnConfig) error {
	if err := requireColumn(b, cfg, cfg.CountryColumn, batch.Text); err != nil {
		return err
	}
	if err := requireColumn(b, cfg, cfg.DateColumn, batch.Date); err != nil {
		return err
	}
	for _, opt := range []string{cfg.GeoCodeColumn, cfg.RegionColumn} {
		if opt == "" {
			continue
		}
		if err := requireColumn(b, cfg, opt, batch.Text); err != nil {
			return err
		}
	}
	for _, c := range cfg.NumericColumns {
		if err := requireColumn(b, cfg, c, batch.Number); err != nil {
			return err
		}
	}
	return nil
}

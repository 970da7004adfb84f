package covid

import (
	"context"

	"epi-etl/batch"
	"epi-etl/extractors"

	"go.uber.org/zap"
)

// Spalten des COVID-19-Exports (Kaggle "full_grouped").
const (
	ColDate         = "Date"
	ColCountry      = "Country/Region"
	ColConfirmed    = "Confirmed"
	ColDeaths       = "Deaths"
	ColRecovered    = "Recovered"
	ColActive       = "Active"
	ColNewCases     = "New cases"
	ColNewDeaths    = "New deaths"
	ColNewRecovered = "New recovered"
	ColWHORegion    = "WHO Region"
)

// Columns ist der Spaltenvertrag der Quelle.
var Columns = []batch.Column{
	{Name: ColDate, Kind: batch.Date},
	{Name: ColCountry, Kind: batch.Text},
	{Name: ColConfirmed, Kind: batch.Number},
	{Name: ColDeaths, Kind: batch.Number},
	{Name: ColRecovered, Kind: batch.Number},
	{Name: ColActive, Kind: batch.Number},
	{Name: ColNewCases, Kind: batch.Number},
	{Name: ColNewDeaths, Kind: batch.Number},
	{Name: ColNewRecovered, Kind: batch.Number},
	{Name: ColWHORegion, Kind: batch.Text},
}

// Extractor liest den COVID-19-Export.
type Extractor struct {
	location string
	opener   extractors.Opener
	logger   *zap.Logger
}

func NewExtractor(location string, opener extractors.Opener, logger *zap.Logger) *Extractor {
	return &Extractor{location: location, opener: opener, logger: logger}
}

func (e *Extractor) Name() string {
	return "covid"
}

func (e *Extractor) Extract(ctx context.Context) (*batch.Batch, error) {
	e.logger.Info("Starting extract", zap.String("source", e.Name()), zap.String("location", e.location))
	rc, err := e.opener.Open(ctx, e.location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return extractors.ReadCSV(rc, e.Name(), Columns, e.logger)
}

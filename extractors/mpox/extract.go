package mpox

import (
	"context"

	"epi-etl/batch"
	"epi-etl/extractors"

	"go.uber.org/zap"
)

// Spalten des MPOX-Exports (Our World in Data).
const (
	ColLocation                    = "location"
	ColISOCode                     = "iso_code"
	ColDate                        = "date"
	ColTotalCases                  = "total_cases"
	ColTotalDeaths                 = "total_deaths"
	ColNewCases                    = "new_cases"
	ColNewDeaths                   = "new_deaths"
	ColNewCasesSmoothed            = "new_cases_smoothed"
	ColNewDeathsSmoothed           = "new_deaths_smoothed"
	ColNewCasesPerMillion          = "new_cases_per_million"
	ColTotalCasesPerMillion        = "total_cases_per_million"
	ColNewCasesSmoothedPerMillion  = "new_cases_smoothed_per_million"
	ColNewDeathsPerMillion         = "new_deaths_per_million"
	ColTotalDeathsPerMillion       = "total_deaths_per_million"
	ColNewDeathsSmoothedPerMillion = "new_deaths_smoothed_per_million"
)

// Columns ist der Spaltenvertrag der Quelle.
var Columns = []batch.Column{
	{Name: ColLocation, Kind: batch.Text},
	{Name: ColISOCode, Kind: batch.Text},
	{Name: ColDate, Kind: batch.Date},
	{Name: ColTotalCases, Kind: batch.Number},
	{Name: ColTotalDeaths, Kind: batch.Number},
	{Name: ColNewCases, Kind: batch.Number},
	{Name: ColNewDeaths, Kind: batch.Number},
	{Name: ColNewCasesSmoothed, Kind: batch.Number},
	{Name: ColNewDeathsSmoothed, Kind: batch.Number},
	{Name: ColNewCasesPerMillion, Kind: batch.Number},
	{Name: ColTotalCasesPerMillion, Kind: batch.Number},
	{Name: ColNewCasesSmoothedPerMillion, Kind: batch.Number},
	{Name: ColNewDeathsPerMillion, Kind: batch.Number},
	{Name: ColTotalDeathsPerMillion, Kind: batch.Number},
	{Name: ColNewDeathsSmoothedPerMillion, Kind: batch.Number},
}

// Extractor liest den MPOX-Export.
type Extractor struct {
	location string
	opener   extractors.Opener
	logger   *zap.Logger
}

func NewExtractor(location string, opener extractors.Opener, logger *zap.Logger) *Extractor {
	return &Extractor{location: location, opener: opener, logger: logger}
}

func (e *Extractor) Name() string {
	return "mpox"
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

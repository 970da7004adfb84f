package services

import (
	"epi-etl/config"
	"epi-etl/extractors"
	"epi-etl/extractors/covid"
	"epi-etl/extractors/mpox"
	"epi-etl/transformers"

	"go.uber.org/zap"
)

// Source verbindet eine Quelle mit ihrer Krankheit und ihrer Spaltenbedeutung.
// Die Krankheit wird immer über ihren Namen aufgelöst.
type Source struct {
	Disease   string
	Location  string
	Extractor extractors.Extractor
	Columns   transformers.ColumnConfig
	Countries CountryColumns
	Stats     StatColumns
}

func (s *Source) Name() string {
	return s.Extractor.Name()
}

// CovidSource beschreibt den COVID-19-Export. Neue Fälle und gleitende Mittel werden aus den kumulativen Werten abgeleitet.
func CovidSource(location string, opener extractors.Opener, logger *zap.Logger) Source {
	return Source{
		Disease:   DiseaseCOVID,
		Location:  location,
		Extractor: covid.NewExtractor(location, opener, logger),
		Columns: transformers.ColumnConfig{
			Source:             "covid",
			CountryColumn:      covid.ColCountry,
			DateColumn:         covid.ColDate,
			RegionColumn:       covid.ColWHORegion,
			NumericColumns:     []string{covid.ColConfirmed, covid.ColDeaths, covid.ColRecovered, covid.ColActive},
			AggregateByCountry: true,
		},
		Countries: CountryColumns{
			Source: "covid",
			Name:   covid.ColCountry,
			Region: covid.ColWHORegion,
		},
		Stats: StatColumns{
			Country:        covid.ColCountry,
			Date:           covid.ColDate,
			TotalCases:     covid.ColConfirmed,
			TotalDeaths:    covid.ColDeaths,
			ActiveCases:    covid.ColActive,
			RecoveredCases: covid.ColRecovered,
		},
	}
}

// MpoxSource beschreibt den MPOX-Export. Aktive und genesene Fälle führt die Quelle nicht.
func MpoxSource(location string, opener extractors.Opener, logger *zap.Logger) Source {
	return Source{
		Disease:   DiseaseMPOX,
		Location:  location,
		Extractor: mpox.NewExtractor(location, opener, logger),
		Columns: transformers.ColumnConfig{
			Source:        "mpox",
			CountryColumn: mpox.ColLocation,
			DateColumn:    mpox.ColDate,
			GeoCodeColumn: mpox.ColISOCode,
			NumericColumns: []string{
				mpox.ColTotalCases, mpox.ColTotalDeaths,
				mpox.ColNewCases, mpox.ColNewDeaths,
				mpox.ColNewCasesSmoothed, mpox.ColNewDeathsSmoothed,
				mpox.ColTotalCasesPerMillion, mpox.ColTotalDeathsPerMillion,
			},
			AggregateByCountry: true,
		},
		Countries: CountryColumns{
			Source:  "mpox",
			Name:    mpox.ColLocation,
			GeoCode: mpox.ColISOCode,
		},
		Stats: StatColumns{
			Country:          mpox.ColLocation,
			Date:             mpox.ColDate,
			TotalCases:       mpox.ColTotalCases,
			TotalDeaths:      mpox.ColTotalDeaths,
			NewCases:         mpox.ColNewCases,
			NewDeaths:        mpox.ColNewDeaths,
			CasesPerMillion:  mpox.ColTotalCasesPerMillion,
			DeathsPerMillion: mpox.ColTotalDeathsPerMillion,
			RollingAvgCases:  mpox.ColNewCasesSmoothed,
			RollingAvgDeaths: mpox.ColNewDeathsSmoothed,
		},
	}
}

// DefaultSources liefert beide Quellen mit den Orten aus der Konfiguration.
func DefaultSources(cfg *config.Config, opener extractors.Opener, logger *zap.Logger) []Source {
	return []Source{
		CovidSource(cfg.CovidSource, opener, logger),
		MpoxSource(cfg.MpoxSource, opener, logger),
	}
}

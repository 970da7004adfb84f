package models

import "time"

// DailyStatistic speichert die Tageswerte einer Episode.
// Nicht erfasste Kennzahlen werden als 0 gespeichert, nie als NULL.
type DailyStatistic struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	EpisodeID  uint      `json:"episode_id" gorm:"uniqueIndex:idx_daily_statistics_episode_date;not null"`
	ObservedOn time.Time `json:"observed_on" gorm:"type:date;uniqueIndex:idx_daily_statistics_episode_date;not null"`

	TotalCases     int64 `json:"total_cases" gorm:"not null;default:0"`
	TotalDeaths    int64 `json:"total_deaths" gorm:"not null;default:0"`
	NewCases       int64 `json:"new_cases" gorm:"not null;default:0"`
	NewDeaths      int64 `json:"new_deaths" gorm:"not null;default:0"`
	ActiveCases    int64 `json:"active_cases" gorm:"not null;default:0"`
	RecoveredCases int64 `json:"recovered_cases" gorm:"not null;default:0"`

	Detail *DetailedStatistic `json:"detail,omitempty"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (DailyStatistic) TableName() string {
	return "daily_statistics"
}

// DetailedStatistic erweitert eine DailyStatistic 1:1 um abgeleitete Kennzahlen.
type DetailedStatistic struct {
	ID               uint `json:"id" gorm:"primaryKey"`
	DailyStatisticID uint `json:"daily_statistic_id" gorm:"uniqueIndex;not null"`

	CasesPerMillion  float64 `json:"cases_per_million" gorm:"not null;default:0"`
	DeathsPerMillion float64 `json:"deaths_per_million" gorm:"not null;default:0"`
	RollingAvgCases  float64 `json:"rolling_avg_cases" gorm:"not null;default:0"`
	RollingAvgDeaths float64 `json:"rolling_avg_deaths" gorm:"not null;default:0"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (DetailedStatistic) TableName() string {
	return "detailed_statistics"
}

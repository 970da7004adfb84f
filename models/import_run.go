package models

import (
	"time"

	"gorm.io/datatypes"
)

// ImportRun protokolliert einen Pipeline-Lauf.
type ImportRun struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	RunID      string     `json:"run_id" gorm:"size:36;uniqueIndex;not null"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Success    bool       `json:"success"`

	// Zählerstände pro Quelle, Warnungen und Fehler als JSON
	Summary datatypes.JSON `json:"summary" gorm:"type:jsonb"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (ImportRun) TableName() string {
	return "import_runs"
}

// All listet alle Modelle für AutoMigrate in Abhängigkeitsreihenfolge.
func All() []any {
	return []any{
		&Country{},
		&Disease{},
		&Episode{},
		&DailyStatistic{},
		&DetailedStatistic{},
		&ImportRun{},
	}
}

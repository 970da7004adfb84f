package models

import "time"

// Disease ist ein Eintrag der festen Referenzliste (COVID-19, MPOX).
type Disease struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:50;uniqueIndex;not null"` // z.B. "COVID-19"

	Description           string     `json:"description,omitempty" gorm:"type:text"`
	AvgFatalityRate       float64    `json:"avg_fatality_rate"`
	FirstObserved         *time.Time `json:"first_observed,omitempty" gorm:"type:date"`
	SurveillanceAuthority string     `json:"surveillance_authority,omitempty" gorm:"size:50"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Disease) TableName() string {
	return "diseases"
}

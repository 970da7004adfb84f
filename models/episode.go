package models

import "time"

// EpisodeStatusOngoing ist der Status jeder neu angelegten Episode.
const EpisodeStatusOngoing = "ongoing"

// Episode ist das Auftreten einer Krankheit in einem Land.
// Pro (CountryID, DiseaseID) existiert höchstens eine Zeile.
type Episode struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	CountryID uint `json:"country_id" gorm:"uniqueIndex:idx_episodes_country_disease;not null"`
	DiseaseID uint `json:"disease_id" gorm:"uniqueIndex:idx_episodes_country_disease;not null"`

	FirstCaseDate time.Time  `json:"first_case_date" gorm:"type:date;not null"`
	EndDate       *time.Time `json:"end_date,omitempty" gorm:"type:date"`
	Status        string     `json:"status" gorm:"size:50;not null"`
	Measures      *string    `json:"measures,omitempty" gorm:"type:text"`

	Country    Country          `json:"-"`
	Disease    Disease          `json:"-"`
	Statistics []DailyStatistic `json:"-"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Episode) TableName() string {
	return "episodes"
}

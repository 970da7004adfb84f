package models

import "time"

// Country ist ein Land, identifiziert über seinen Anzeigenamen.
// GeoCode und Region bleiben NULL, solange keine Quelle sie geliefert hat.
type Country struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string  `json:"name" gorm:"size:100;uniqueIndex;not null"`
	GeoCode *string `json:"geo_code,omitempty" gorm:"size:16;index"` // ISO-Code (MPOX-Quelle)
	Region  *string `json:"region,omitempty" gorm:"size:50"`         // WHO-Region (COVID-Quelle)

	Episodes []Episode `json:"-"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Country) TableName() string {
	return "countries"
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Range is a closed acceptable interval for a sensor dimension
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies inside the range (inclusive)
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Requirements describes the environmental requirements configured for a
// crop. A nil range means the dimension is not configured and must never
// be reported as breached. WaterLevel is a free-text severity label; the
// water breach check itself only looks at the presence sentinel.
type Requirements struct {
	Temperature *Range `json:"temperatura,omitempty"`
	PH          *Range `json:"ph,omitempty"`
	WaterLevel  string `json:"nivelAgua,omitempty"`
}

// Value returns the requirements serialized for database storage
func (r Requirements) Value() (driver.Value, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan deserializes requirements from the database
func (r *Requirements) Scan(value interface{}) error {
	if value == nil {
		*r = Requirements{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("invalid scan source for Requirements")
	}

	return json.Unmarshal(bytes, r)
}

// Crop represents a cultivation unit owned by a grower
type Crop struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	CropID    string `gorm:"uniqueIndex;not null" json:"cultivoId"`
	GrowerUID string `gorm:"index;not null" json:"uid"`
	Species   string `gorm:"not null" json:"especie"`
	Variety   string `json:"variedad"`
	Phase     string `json:"fase"`
	// PlantedAt keeps the planting date as the grower entered it;
	// it is display data, never computed against.
	PlantedAt    string         `json:"fechaSiembra"`
	Requirements Requirements   `gorm:"type:jsonb" json:"requerimientos"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// DisplayName returns the species/variety pair used in notifications
func (c *Crop) DisplayName() string {
	if c.Variety == "" {
		return c.Species
	}
	return c.Species + " " + c.Variety
}

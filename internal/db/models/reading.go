package models

import (
	"fmt"
	"time"
)

// ReadingTimeLayout is the wall-clock layout sensors use for dateTime.
// It carries no timezone suffix and must be parsed as local time, never
// as UTC.
const ReadingTimeLayout = "2006-01-02 15:04:05"

// InboxReading is a raw sensor measurement as deposited by a sensor
// process. The inbox is a transient queue: every row is deleted after
// its relocation attempt, whether or not the attempt succeeded.
type InboxReading struct {
	ID        uint   `gorm:"primarykey" json:"-"`
	DocID     string `gorm:"uniqueIndex;not null" json:"docId"`
	SensorID  string `json:"sensorId"`
	GrowerUID string `gorm:"index" json:"userId"`
	CropID    string `gorm:"index" json:"cultivoId"`
	// DateTime is the raw local-time string; it is validated by the
	// ingestion router, not at insert time.
	DateTime    string    `json:"dateTime"`
	PH          float64   `json:"pH"`
	Temperature float64   `json:"temperature"`
	WaterLevel  float64   `json:"waterLevel"`
	CreatedAt   time.Time `json:"-"`
}

// TableName overrides the table name for InboxReading
func (InboxReading) TableName() string {
	return "sensor_inbox"
}

// ParseDateTime parses the raw dateTime string in local time
func (r *InboxReading) ParseDateTime() (time.Time, error) {
	if r.DateTime == "" {
		return time.Time{}, fmt.Errorf("dateTime is not set")
	}
	t, err := time.ParseInLocation(ReadingTimeLayout, r.DateTime, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("dateTime is not a valid date: %w", err)
	}
	return t, nil
}

// ArchivedReading is a relocated sensor measurement in a crop's
// append-only log. Numeric values are stored as fixed 2-decimal text,
// the timestamp as a structured time value.
type ArchivedReading struct {
	Time        time.Time `gorm:"primaryKey;not null" json:"dateTime"`
	GrowerUID   string    `gorm:"type:varchar(255);primaryKey;not null" json:"userId"`
	CropID      string    `gorm:"type:varchar(255);primaryKey;not null" json:"cultivoId"`
	SensorID    string    `gorm:"type:varchar(255)" json:"sensorId"`
	PH          string    `gorm:"type:varchar(16);not null" json:"pH"`
	Temperature string    `gorm:"type:varchar(16);not null" json:"temperature"`
	WaterLevel  string    `gorm:"type:varchar(16);not null" json:"waterLevel"`
}

// TableName overrides the table name for ArchivedReading
func (ArchivedReading) TableName() string {
	return "archived_readings"
}

// FormatSensorValue renders a numeric sensor value the way the archive
// stores it: fixed 2-decimal text.
func FormatSensorValue(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

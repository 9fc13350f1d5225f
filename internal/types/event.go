package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event kinds recorded by the journal UI.
const (
	EventKindFlare      = "flare"
	EventKindMedication = "medication"
	EventKindWellness   = "wellness"
	EventKindNote       = "note"
)

// Severity levels a flare event can carry.
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

// Environment is the weather/air snapshot attached to an event at log time.
type Environment struct {
	TemperatureF *float64 `json:"temperature_f,omitempty"`
	HumidityPct  *float64 `json:"humidity_pct,omitempty"`
	PressureMb   *float64 `json:"pressure_mb,omitempty"`
	Condition    string   `json:"condition,omitempty"`
	AirQuality   *int     `json:"air_quality,omitempty"`
}

// Physiology is the wearable snapshot attached to an event at log time.
type Physiology struct {
	HeartRate  *float64 `json:"heart_rate,omitempty"`
	HRV        *float64 `json:"hrv,omitempty"`
	SleepHours *float64 `json:"sleep_hours,omitempty"`
	Steps      *int     `json:"steps,omitempty"`
	SpO2       *float64 `json:"spo2,omitempty"`
}

type Event struct {
	ID          uuid.UUID                       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID                       `gorm:"type:uuid;not null;index:idx_event_user_time,priority:1" json:"user_id"`
	User        *User                           `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Kind        string                          `gorm:"column:kind;not null;index" json:"kind"`
	Severity    string                          `gorm:"column:severity" json:"severity,omitempty"`
	Symptoms    datatypes.JSONSlice[string]     `gorm:"type:jsonb;column:symptoms" json:"symptoms,omitempty"`
	Triggers    datatypes.JSONSlice[string]     `gorm:"type:jsonb;column:triggers" json:"triggers,omitempty"`
	Medications datatypes.JSONSlice[string]     `gorm:"type:jsonb;column:medications" json:"medications,omitempty"`
	Note        string                          `gorm:"column:note" json:"note,omitempty"`
	Environment datatypes.JSONType[Environment] `gorm:"type:jsonb;column:environment" json:"environment"`
	Physiology  datatypes.JSONType[Physiology]  `gorm:"type:jsonb;column:physiology" json:"physiology"`
	City        string                          `gorm:"column:city" json:"city,omitempty"`
	OccurredAt  time.Time                       `gorm:"not null;index:idx_event_user_time,priority:2" json:"occurred_at"`
	CreatedAt   time.Time                       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time                       `gorm:"not null" json:"updated_at"`
}

func (Event) TableName() string {
	return "event"
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// IsFlare reports whether the event records an adverse outcome.
func (e *Event) IsFlare() bool {
	return e.Kind == EventKindFlare
}

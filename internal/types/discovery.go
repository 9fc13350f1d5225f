package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Discovery lifecycle statuses. Disproven is terminal: the row is kept but
// never surfaced again.
const (
	DiscoveryStatusEmerging      = "emerging"
	DiscoveryStatusInvestigating = "investigating"
	DiscoveryStatusConfirmed     = "confirmed"
	DiscoveryStatusStrong        = "strong"
	DiscoveryStatusDeclining     = "declining"
	DiscoveryStatusDisproven     = "disproven"
)

const (
	DiscoveryTypeTrigger          = "trigger"
	DiscoveryTypeProtectiveFactor = "protective_factor"
	DiscoveryTypePattern          = "pattern"
	DiscoveryTypeCorrelation      = "correlation"
)

const (
	RelationshipIncreasesRisk  = "increases_risk"
	RelationshipDecreasesRisk  = "decreases_risk"
	RelationshipCorrelatesWith = "correlates_with"
)

// Factor categories a discovery can belong to.
const (
	CategoryFood          = "food"
	CategoryWeather       = "weather"
	CategoryPhysiological = "physiological"
	CategoryTime          = "time"
	CategoryLocation      = "location"
	CategoryLifestyle     = "lifestyle"
	CategoryMedication    = "medication"
	CategoryActivity      = "activity"
	CategoryPattern       = "pattern"
)

// Discovery is a persisted, scored association between a factor (or factor
// pair) and adverse outcomes in one user's history. Identity for merge
// purposes is (user_id, category, factor_a, factor_b); FactorB is the empty
// string when there is no secondary factor so the unique index holds
// (Postgres treats NULLs as distinct).
type Discovery struct {
	ID                 uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID                      `gorm:"type:uuid;not null;uniqueIndex:idx_discovery_identity,priority:1" json:"user_id"`
	User               *User                          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	DiscoveryType      string                         `gorm:"column:discovery_type;not null" json:"discovery_type"`
	Category           string                         `gorm:"column:category;not null;uniqueIndex:idx_discovery_identity,priority:2" json:"category"`
	FactorA            string                         `gorm:"column:factor_a;not null;uniqueIndex:idx_discovery_identity,priority:3" json:"factor_a"`
	FactorB            string                         `gorm:"column:factor_b;not null;default:'';uniqueIndex:idx_discovery_identity,priority:4" json:"factor_b,omitempty"`
	Relationship       string                         `gorm:"column:relationship;not null" json:"relationship"`
	OccurrenceCount    int                            `gorm:"column:occurrence_count;not null" json:"occurrence_count"`
	TotalExposures     int                            `gorm:"column:total_exposures;not null" json:"total_exposures"`
	Confidence         float64                        `gorm:"column:confidence;not null;index" json:"confidence"`
	Lift               float64                        `gorm:"column:lift;not null" json:"lift"`
	AvgDelayHours      *float64                       `gorm:"column:avg_delay_hours" json:"avg_delay_hours,omitempty"`
	PValue             float64                        `gorm:"column:p_value;not null" json:"p_value"`
	SupportingEventIDs datatypes.JSONSlice[uuid.UUID] `gorm:"type:jsonb;column:supporting_event_ids" json:"supporting_event_ids,omitempty"`
	EvidenceSummary    string                         `gorm:"column:evidence_summary" json:"evidence_summary"`
	Status             string                         `gorm:"column:status;not null;index" json:"status"`
	SurfacedAt         *time.Time                     `gorm:"column:surfaced_at" json:"surfaced_at,omitempty"`
	AcknowledgedAt     *time.Time                     `gorm:"column:acknowledged_at" json:"acknowledged_at,omitempty"`
	LastEvidenceAt     time.Time                      `gorm:"column:last_evidence_at;not null" json:"last_evidence_at"`
	CreatedAt          time.Time                      `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time                      `gorm:"not null" json:"updated_at"`
}

func (Discovery) TableName() string {
	return "discovery"
}

func (d *Discovery) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// IdentityKey is the merge key within one user's discovery set.
func (d *Discovery) IdentityKey() string {
	return d.Category + "\x00" + d.FactorA + "\x00" + d.FactorB
}

package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lyrebird-health/flarelog-backend/internal/logger"
	"github.com/lyrebird-health/flarelog-backend/internal/types"
)

const (
	// DefaultUnsurfacedLimit is how many fresh discoveries one surfacing
	// request hands to the app.
	DefaultUnsurfacedLimit = 5

	// UnsurfacedMinConfidence keeps low-signal findings out of the feed.
	UnsurfacedMinConfidence = 0.3
)

type DiscoveryRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Discovery, error)
	MergeRun(ctx context.Context, tx *gorm.DB, userID uuid.UUID, computed []*types.Discovery) (created int, updated int, err error)
	List(ctx context.Context, tx *gorm.DB, userID uuid.UUID, minConfidence float64, status string, limit int) ([]*types.Discovery, error)
	ListUnsurfaced(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Discovery, error)
	MarkSurfaced(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ids []uuid.UUID) error
	Acknowledge(ctx context.Context, tx *gorm.DB, userID uuid.UUID, id uuid.UUID) error
}

type discoveryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDiscoveryRepo(db *gorm.DB, baseLog *logger.Logger) DiscoveryRepo {
	return &discoveryRepo{db: db, log: baseLog.With("repo", "DiscoveryRepo")}
}

func (r *discoveryRepo) dbx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *discoveryRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Discovery, error) {
	var results []*types.Discovery
	if userID == uuid.Nil {
		return results, nil
	}
	if err := r.dbx(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// discoveryEvidenceColumns are the columns a merge is allowed to rewrite.
// id, surfaced_at and acknowledged_at are never part of the assignment, so
// a concurrent MarkSurfaced or Acknowledge can never be undone by a merge.
var discoveryEvidenceColumns = []string{
	"discovery_type",
	"relationship",
	"occurrence_count",
	"total_exposures",
	"confidence",
	"lift",
	"avg_delay_hours",
	"p_value",
	"supporting_event_ids",
	"evidence_summary",
	"status",
	"last_evidence_at",
	"updated_at",
}

// MergeRun upserts one run's computed discoveries by identity
// (user_id, category, factor_a, factor_b). Existing rows keep their id,
// surfaced_at and acknowledged_at; evidence columns are overwritten
// (last write wins). New identities start unsurfaced and unacknowledged.
func (r *discoveryRepo) MergeRun(ctx context.Context, tx *gorm.DB, userID uuid.UUID, computed []*types.Discovery) (int, int, error) {
	if userID == uuid.Nil || len(computed) == 0 {
		return 0, 0, nil
	}
	existing, err := r.GetByUserID(ctx, tx, userID)
	if err != nil {
		return 0, 0, err
	}
	known := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		known[row.IdentityKey()] = struct{}{}
	}

	created, updated := 0, 0
	for _, d := range computed {
		d.ID = uuid.New()
		d.UserID = userID
		d.SurfacedAt = nil
		d.AcknowledgedAt = nil
		d.UpdatedAt = time.Now().UTC()
		if err := r.dbx(tx).WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"}, {Name: "category"},
				{Name: "factor_a"}, {Name: "factor_b"},
			},
			DoUpdates: clause.AssignmentColumns(discoveryEvidenceColumns),
		}).Create(d).Error; err != nil {
			return created, updated, err
		}
		if _, ok := known[d.IdentityKey()]; ok {
			updated++
		} else {
			known[d.IdentityKey()] = struct{}{}
			created++
		}
	}
	return created, updated, nil
}

// List returns discoveries ordered by confidence descending. Disproven rows
// are excluded unless explicitly asked for by status.
func (r *discoveryRepo) List(ctx context.Context, tx *gorm.DB, userID uuid.UUID, minConfidence float64, status string, limit int) ([]*types.Discovery, error) {
	var results []*types.Discovery
	if userID == uuid.Nil {
		return results, nil
	}
	q := r.dbx(tx).WithContext(ctx).
		Where("user_id = ? AND confidence >= ?", userID, minConfidence)
	if status != "" {
		q = q.Where("status = ?", status)
	} else {
		q = q.Where("status <> ?", types.DiscoveryStatusDisproven)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("confidence DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *discoveryRepo) ListUnsurfaced(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Discovery, error) {
	var results []*types.Discovery
	if userID == uuid.Nil {
		return results, nil
	}
	if limit <= 0 {
		limit = DefaultUnsurfacedLimit
	}
	if err := r.dbx(tx).WithContext(ctx).
		Where("user_id = ? AND surfaced_at IS NULL AND confidence >= ? AND status <> ?",
			userID, UnsurfacedMinConfidence, types.DiscoveryStatusDisproven).
		Order("confidence DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// MarkSurfaced stamps surfaced_at once; rows already surfaced are left
// alone, which keeps the operation idempotent and the timestamp monotonic.
func (r *discoveryRepo) MarkSurfaced(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ids []uuid.UUID) error {
	if userID == uuid.Nil || len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return r.dbx(tx).WithContext(ctx).
		Model(&types.Discovery{}).
		Where("user_id = ? AND id IN ? AND surfaced_at IS NULL", userID, ids).
		Updates(map[string]interface{}{"surfaced_at": now, "updated_at": now}).Error
}

func (r *discoveryRepo) Acknowledge(ctx context.Context, tx *gorm.DB, userID uuid.UUID, id uuid.UUID) error {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	return r.dbx(tx).WithContext(ctx).
		Model(&types.Discovery{}).
		Where("user_id = ? AND id = ? AND acknowledged_at IS NULL", userID, id).
		Updates(map[string]interface{}{"acknowledged_at": now, "updated_at": now}).Error
}

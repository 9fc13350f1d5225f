package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lyrebird-health/flarelog-backend/internal/logger"
	"github.com/lyrebird-health/flarelog-backend/internal/types"
)

// DefaultAnalysisEventLimit bounds how much history one analysis run reads.
const DefaultAnalysisEventLimit = 1000

type EventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, events []*types.Event) ([]*types.Event, error)
	GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Event, error)
	CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	return &eventRepo{db: db, log: baseLog.With("repo", "EventRepo")}
}

func (r *eventRepo) dbx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *eventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.Event) ([]*types.Event, error) {
	if len(events) == 0 {
		return []*types.Event{}, nil
	}
	if err := r.dbx(tx).WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// GetRecentByUserID returns the newest events first. The discovery engine
// re-sorts ascending internally, so either order is acceptable to it.
func (r *eventRepo) GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Event, error) {
	var results []*types.Event
	if userID == uuid.Nil {
		return results, nil
	}
	if limit <= 0 || limit > DefaultAnalysisEventLimit {
		limit = DefaultAnalysisEventLimit
	}
	if err := r.dbx(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *eventRepo) CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	var count int64
	if userID == uuid.Nil {
		return 0, nil
	}
	if err := r.dbx(tx).WithContext(ctx).
		Model(&types.Event{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

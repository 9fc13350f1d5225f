package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lyrebird-health/flarelog-backend/internal/logger"
	"github.com/lyrebird-health/flarelog-backend/internal/repos"
	"github.com/lyrebird-health/flarelog-backend/internal/requestdata"
	"github.com/lyrebird-health/flarelog-backend/internal/types"
)

const maxEventBatch = 200

var validEventKinds = map[string]bool{
	types.EventKindFlare:      true,
	types.EventKindMedication: true,
	types.EventKindWellness:   true,
	types.EventKindNote:       true,
}

var validSeverities = map[string]bool{
	"":                     true,
	types.SeverityMild:     true,
	types.SeverityModerate: true,
	types.SeveritySevere:   true,
}

type EventInput struct {
	Kind        string             `json:"kind"`
	Severity    string             `json:"severity,omitempty"`
	OccurredAt  *time.Time         `json:"occurred_at,omitempty"`
	Symptoms    []string           `json:"symptoms,omitempty"`
	Triggers    []string           `json:"triggers,omitempty"`
	Medications []string           `json:"medications,omitempty"`
	Note        string             `json:"note,omitempty"`
	Environment *types.Environment `json:"environment,omitempty"`
	Physiology  *types.Physiology  `json:"physiology,omitempty"`
	City        string             `json:"city,omitempty"`
}

type EventService interface {
	Ingest(ctx context.Context, inputs []EventInput) (int, error)
	ListRecent(ctx context.Context, limit int) ([]*types.Event, error)
}

type eventService struct {
	db        *gorm.DB
	log       *logger.Logger
	eventRepo repos.EventRepo
}

func NewEventService(db *gorm.DB, log *logger.Logger, eventRepo repos.EventRepo) EventService {
	return &eventService{
		db:        db,
		log:       log.With("service", "EventService"),
		eventRepo: eventRepo,
	}
}

func (s *eventService) Ingest(ctx context.Context, inputs []EventInput) (int, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return 0, fmt.Errorf("not authenticated")
	}
	if len(inputs) == 0 {
		return 0, nil
	}
	if len(inputs) > maxEventBatch {
		return 0, fmt.Errorf("too many events (max %d)", maxEventBatch)
	}

	now := time.Now().UTC()
	rows := make([]*types.Event, 0, len(inputs))
	for i := range inputs {
		in := inputs[i]

		kind := strings.ToLower(strings.TrimSpace(in.Kind))
		if !validEventKinds[kind] {
			return 0, fmt.Errorf("invalid event kind %q at index %d", in.Kind, i)
		}
		severity := strings.ToLower(strings.TrimSpace(in.Severity))
		if !validSeverities[severity] {
			return 0, fmt.Errorf("invalid severity %q at index %d", in.Severity, i)
		}

		occurred := now
		if in.OccurredAt != nil && !in.OccurredAt.IsZero() {
			occurred = in.OccurredAt.UTC()
		}

		var env types.Environment
		if in.Environment != nil {
			env = *in.Environment
		}
		var phys types.Physiology
		if in.Physiology != nil {
			phys = *in.Physiology
		}

		rows = append(rows, &types.Event{
			ID:          uuid.New(),
			UserID:      rd.UserID,
			Kind:        kind,
			Severity:    severity,
			Symptoms:    datatypes.NewJSONSlice(trimAll(in.Symptoms)),
			Triggers:    datatypes.NewJSONSlice(trimAll(in.Triggers)),
			Medications: datatypes.NewJSONSlice(trimAll(in.Medications)),
			Note:        strings.TrimSpace(in.Note),
			Environment: datatypes.NewJSONType(env),
			Physiology:  datatypes.NewJSONType(phys),
			City:        strings.TrimSpace(in.City),
			OccurredAt:  occurred,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	created, err := s.eventRepo.Create(ctx, nil, rows)
	if err != nil {
		s.log.Warn("event ingest failed", "error", err)
		return 0, err
	}
	return len(created), nil
}

func (s *eventService) ListRecent(ctx context.Context, limit int) ([]*types.Event, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("not authenticated")
	}
	return s.eventRepo.GetRecentByUserID(ctx, nil, rd.UserID, limit)
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

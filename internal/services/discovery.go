package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/lyrebird-health/flarelog-backend/internal/discovery"
	"github.com/lyrebird-health/flarelog-backend/internal/logger"
	"github.com/lyrebird-health/flarelog-backend/internal/repos"
	"github.com/lyrebird-health/flarelog-backend/internal/requestdata"
	"github.com/lyrebird-health/flarelog-backend/internal/types"
)

// AnalysisResult is what a deep-analysis run reports back to the caller.
type AnalysisResult struct {
	TotalAnalyzed      int                `json:"total_analyzed"`
	DiscoveriesTracked int                `json:"discoveries_tracked"`
	NewDiscoveries     int                `json:"new_discoveries"`
	TopDiscoveries     []*types.Discovery `json:"top_discoveries"`
	Message            string             `json:"message,omitempty"`
}

type DiscoveryService interface {
	RunDeepAnalysis(ctx context.Context, timezone string) (*AnalysisResult, error)
	GetDiscoveries(ctx context.Context, minConfidence float64, status string) ([]*types.Discovery, error)
	GetUnsurfaced(ctx context.Context) ([]*types.Discovery, error)
	MarkSurfaced(ctx context.Context, ids []uuid.UUID) error
	Acknowledge(ctx context.Context, id uuid.UUID) error
}

type discoveryService struct {
	db            *gorm.DB
	log           *logger.Logger
	engine        *discovery.Engine
	eventRepo     repos.EventRepo
	discoveryRepo repos.DiscoveryRepo
	notifier      DiscoveryNotifier
}

func NewDiscoveryService(
	db *gorm.DB,
	log *logger.Logger,
	engine *discovery.Engine,
	eventRepo repos.EventRepo,
	discoveryRepo repos.DiscoveryRepo,
	notifier DiscoveryNotifier,
) DiscoveryService {
	return &discoveryService{
		db:            db,
		log:           log.With("service", "DiscoveryService"),
		engine:        engine,
		eventRepo:     eventRepo,
		discoveryRepo: discoveryRepo,
		notifier:      notifier,
	}
}

// RunDeepAnalysis mines the user's recent history for factor/outcome
// associations and merges them into the persisted discovery set. All
// computation happens before the single write transaction, so a cancelled
// or failed run commits nothing.
func (s *discoveryService) RunDeepAnalysis(ctx context.Context, timezone string) (*AnalysisResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("not authenticated")
	}
	userID := rd.UserID

	loc := resolveTimezone(timezone, rd.Timezone)

	var (
		events   []*types.Event
		existing []*types.Discovery
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = s.eventRepo.GetRecentByUserID(gctx, nil, userID, repos.DefaultAnalysisEventLimit)
		if err != nil {
			return fmt.Errorf("failed to load events: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		existing, err = s.discoveryRepo.GetByUserID(gctx, nil, userID)
		if err != nil {
			return fmt.Errorf("failed to load tracked discoveries: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tracked := make(map[string]bool, len(existing))
	for _, d := range existing {
		tracked[d.IdentityKey()] = true
	}

	run := s.engine.Analyze(events, loc, tracked)
	if run.InsufficientData {
		return &AnalysisResult{
			TotalAnalyzed:  run.TotalAnalyzed,
			TopDiscoveries: []*types.Discovery{},
			Message:        run.Message,
		}, nil
	}

	var created, updated int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var mergeErr error
		created, updated, mergeErr = s.discoveryRepo.MergeRun(ctx, tx, userID, run.Candidates)
		return mergeErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to merge discoveries: %w", err)
	}

	top, err := s.discoveryRepo.ListUnsurfaced(ctx, nil, userID, repos.DefaultUnsurfacedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load unsurfaced discoveries: %w", err)
	}

	if s.notifier != nil && created > 0 {
		if err := s.notifier.PublishRunCompleted(ctx, userID, created); err != nil {
			s.log.Warn("discovery notification failed (ignored)", "error", err)
		}
	}

	s.log.Info("deep analysis completed",
		"user_id", userID,
		"events", run.TotalAnalyzed,
		"created", created,
		"updated", updated)

	return &AnalysisResult{
		TotalAnalyzed:      run.TotalAnalyzed,
		DiscoveriesTracked: created + updated,
		NewDiscoveries:     created,
		TopDiscoveries:     top,
	}, nil
}

func (s *discoveryService) GetDiscoveries(ctx context.Context, minConfidence float64, status string) ([]*types.Discovery, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("not authenticated")
	}
	return s.discoveryRepo.List(ctx, nil, rd.UserID, minConfidence, status, 0)
}

func (s *discoveryService) GetUnsurfaced(ctx context.Context) ([]*types.Discovery, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("not authenticated")
	}
	return s.discoveryRepo.ListUnsurfaced(ctx, nil, rd.UserID, repos.DefaultUnsurfacedLimit)
}

func (s *discoveryService) MarkSurfaced(ctx context.Context, ids []uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return fmt.Errorf("not authenticated")
	}
	return s.discoveryRepo.MarkSurfaced(ctx, nil, rd.UserID, ids)
}

func (s *discoveryService) Acknowledge(ctx context.Context, id uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return fmt.Errorf("not authenticated")
	}
	return s.discoveryRepo.Acknowledge(ctx, nil, rd.UserID, id)
}

// resolveTimezone prefers the explicit request timezone, then the account
// default, then UTC.
func resolveTimezone(requested, account string) *time.Location {
	for _, name := range []string{requested, account} {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

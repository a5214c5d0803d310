package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"novalabs/internal/cache"
	apperrors "novalabs/internal/errors"
	"novalabs/internal/model"
	"novalabs/internal/onboarding"
	"novalabs/internal/repository"
)

// workingCopyTTL matches the client-side hydration window: a working copy
// older than 7 days is discarded and the durable record wins.
const workingCopyTTL = 7 * 24 * time.Hour

// OnboardingUpdateInput is one incremental intake update. Only the provided
// sections are overwritten; completed steps are merged as a set.
type OnboardingUpdateInput struct {
	Sections       map[string]json.RawMessage
	CompletedSteps []int
	CurrentStep    int
}

// OnboardingView is the onboarding record plus its derived progress.
type OnboardingView struct {
	Response *model.OnboardingResponse `json:"onboarding"`
	Progress onboarding.Progress       `json:"progress"`
}

// OnboardingService mediates between the client's working copy and durable
// storage. State changes are emitted to every registered sink, so the cache
// and the database stay in step without the update logic knowing about either.
type OnboardingService interface {
	Get(ctx context.Context, projectID uint) (*OnboardingView, error)
	Update(ctx context.Context, projectID uint, input OnboardingUpdateInput) (*OnboardingView, error)
	Reset(ctx context.Context, projectID uint) error
}

// snapshotSink receives every onboarding state change.
type snapshotSink interface {
	Persist(ctx context.Context, snap *model.OnboardingResponse) error
	Drop(ctx context.Context, projectID uint) error
}

type onboardingService struct {
	projects repository.ProjectRepository
	repo     repository.OnboardingRepository
	cache    *cacheSink
	sinks    []snapshotSink
	now      func() time.Time
}

// NewOnboardingService builds an OnboardingService writing through the Redis
// working copy and the durable repository.
func NewOnboardingService(projects repository.ProjectRepository, repo repository.OnboardingRepository, cacheClient *cache.Client) OnboardingService {
	cs := &cacheSink{cache: cacheClient}
	return &onboardingService{
		projects: projects,
		repo:     repo,
		cache:    cs,
		sinks:    []snapshotSink{cs, &repoSink{repo: repo}},
		now:      time.Now,
	}
}

func (s *onboardingService) Get(ctx context.Context, projectID uint) (*OnboardingView, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, err
	}

	if snap := s.cache.load(ctx, projectID); snap != nil {
		return s.view(snap), nil
	}

	snap, err := s.repo.FindByProject(ctx, projectID)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		snap = &model.OnboardingResponse{ProjectID: projectID, Status: model.OnboardingPending}
	}
	_ = s.cache.Persist(ctx, snap)
	return s.view(snap), nil
}

func (s *onboardingService) Update(ctx context.Context, projectID uint, input OnboardingUpdateInput) (*OnboardingView, error) {
	current, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	snap := current.Response

	for name, data := range input.Sections {
		snap.SetSection(name, data)
	}
	// Set-union keeps step marking idempotent.
	snap.SetSteps(append(snap.Steps(), input.CompletedSteps...))

	progress := onboarding.Compute(snap.Steps(), input.CurrentStep)
	switch {
	case progress.IsComplete:
		snap.Status = model.OnboardingCompleted
		if snap.SubmittedAt == nil {
			now := s.now()
			snap.SubmittedAt = &now
		}
	case len(snap.Steps()) > 0:
		snap.Status = model.OnboardingInProgress
	default:
		snap.Status = model.OnboardingPending
	}
	snap.UpdatedAt = s.now()

	for _, sink := range s.sinks {
		if err := sink.Persist(ctx, snap); err != nil {
			return nil, fmt.Errorf("persist onboarding: %w", err)
		}
	}
	return &OnboardingView{Response: snap, Progress: progress}, nil
}

func (s *onboardingService) Reset(ctx context.Context, projectID uint) error {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrProjectNotFound
		}
		return err
	}
	for _, sink := range s.sinks {
		if err := sink.Drop(ctx, projectID); err != nil {
			return fmt.Errorf("reset onboarding: %w", err)
		}
	}
	return nil
}

func (s *onboardingService) view(snap *model.OnboardingResponse) *OnboardingView {
	return &OnboardingView{
		Response: snap,
		Progress: onboarding.Compute(snap.Steps(), 0),
	}
}

// cacheSink keeps the working copy in Redis with the 7-day freshness window.
type cacheSink struct {
	cache *cache.Client
}

func onboardingCacheKey(projectID uint) string {
	return fmt.Sprintf("onboarding:%d", projectID)
}

func (c *cacheSink) load(ctx context.Context, projectID uint) *model.OnboardingResponse {
	data, _ := c.cache.Get(ctx, onboardingCacheKey(projectID))
	if data == nil {
		return nil
	}
	var snap model.OnboardingResponse
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil
	}
	return &snap
}

func (c *cacheSink) Persist(ctx context.Context, snap *model.OnboardingResponse) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, onboardingCacheKey(snap.ProjectID), payload, workingCopyTTL)
}

func (c *cacheSink) Drop(ctx context.Context, projectID uint) error {
	return c.cache.Delete(ctx, onboardingCacheKey(projectID))
}

// repoSink mirrors every state change into the durable store.
type repoSink struct {
	repo repository.OnboardingRepository
}

func (r *repoSink) Persist(ctx context.Context, snap *model.OnboardingResponse) error {
	return r.repo.Upsert(ctx, snap)
}

func (r *repoSink) Drop(ctx context.Context, projectID uint) error {
	return r.repo.DeleteByProject(ctx, projectID)
}

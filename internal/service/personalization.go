package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/leadership-coach/internal/cache"
	"github.com/capitalize-ai/leadership-coach/internal/model"
	"github.com/capitalize-ai/leadership-coach/pkg/logger"
)

// PersonalizationService reads and writes users' 360 assessments. Reads go
// through a TTL cache because every chat turn of an authenticated user asks
// for one.
type PersonalizationService struct {
	repo   AssessmentRepository
	cache  *cache.TTL[string, *model.PersonalizationContext]
	logger *logger.Logger
	now    func() time.Time
}

// NewPersonalizationService creates the service. c may be nil to disable
// caching.
func NewPersonalizationService(repo AssessmentRepository, c *cache.TTL[string, *model.PersonalizationContext], log *logger.Logger) *PersonalizationService {
	if c == nil {
		c = cache.New[string, *model.PersonalizationContext](0)
	}
	return &PersonalizationService{
		repo:   repo,
		cache:  c,
		logger: logger.OrGlobal(log),
		now:    time.Now,
	}
}

// Get returns the user's assessment or ErrNotFound.
func (s *PersonalizationService) Get(ctx context.Context, userID string) (*model.PersonalizationContext, error) {
	if p, ok := s.cache.Get(userID); ok {
		cp := *p
		return &cp, nil
	}

	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(userID, p)
	cp := *p
	return &cp, nil
}

// Lookup is Get for the chat path: a missing or unreadable assessment yields
// nil instead of an error.
func (s *PersonalizationService) Lookup(ctx context.Context, userID string) *model.PersonalizationContext {
	if s == nil || userID == "" {
		return nil
	}
	p, err := s.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("failed to load assessment", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}
	return p
}

// Put stores or replaces the user's assessment.
func (s *PersonalizationService) Put(ctx context.Context, userID string, req *model.PutAssessmentRequest) (*model.PersonalizationContext, error) {
	if strings.TrimSpace(req.Assessment) == "" {
		return nil, fmt.Errorf("%w: assessment is required", ErrInvalidInput)
	}

	p := &model.PersonalizationContext{
		UserID:     userID,
		Assessment: req.Assessment,
		SourceText: req.SourceText,
		UpdatedAt:  s.now(),
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to store assessment: %w", err)
	}
	s.cache.Delete(userID)

	s.logger.Info("assessment stored", zap.String("user_id", userID), zap.Int("length", len(req.Assessment)))
	return p, nil
}

// Delete removes the user's assessment.
func (s *PersonalizationService) Delete(ctx context.Context, userID string) error {
	s.cache.Delete(userID)
	return s.repo.Delete(ctx, userID)
}

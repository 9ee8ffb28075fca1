package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/tango"
)

// ErrActivityDisabled no autograding backend is configured.
var ErrActivityDisabled = errors.New("submission activity is not configured")

// SubmissionFeed lists recent autograder job start times. *tango.Client
// satisfies it.
type SubmissionFeed interface {
	RecentSubmissionTimes(ctx context.Context) ([]time.Time, error)
}

// ActivityService reports autograder load.
type ActivityService interface {
	// SubmissionHistogram maps look-back seconds to the number of
	// submissions started within that window.
	SubmissionHistogram(ctx context.Context) (map[int]int, error)
}

type activityService struct {
	feed   SubmissionFeed
	logger *zap.Logger
	now    func() time.Time
}

// NewActivityService creates an ActivityService. feed may be nil.
func NewActivityService(feed SubmissionFeed, logger *zap.Logger) ActivityService {
	return &activityService{feed: feed, logger: logger, now: time.Now}
}

func (s *activityService) SubmissionHistogram(ctx context.Context) (map[int]int, error) {
	if s.feed == nil {
		return nil, ErrActivityDisabled
	}
	starts, err := s.feed.RecentSubmissionTimes(ctx)
	if err != nil {
		s.logger.Warn("fetch autograder jobs failed", zap.Error(err))
		return nil, upstreamError(err)
	}
	return tango.Histogram(starts, s.now()), nil
}

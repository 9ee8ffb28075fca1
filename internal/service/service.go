package service

import (
	"go.uber.org/zap"

	"github.com/UB-CSE-IT/Autolab-Self-Service/config"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/metrics"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/repository"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/autolab"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/jwt"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/redis"
)

// Service aggregates every service of the portal.
type Service struct {
	Auth     AuthService
	User     UserService
	Course   CourseService
	Roster   RosterService
	Conflict ConflictService
	Grading  GradingService
	Export   ExportService
	Section  SectionService
	Activity ActivityService
}

// NewService wires the services. rdb may be nil when Redis is unavailable;
// locking and token revocation are then disabled. feed may be nil when no
// autograding backend is configured.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	platform autolab.API,
	feed SubmissionFeed,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	recorder metrics.Recorder,
	logger *zap.Logger,
) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	var (
		locker    Locker
		blacklist TokenBlacklist
	)
	if rdb != nil {
		locker = rdb
		blacklist = rdb
	}

	grading := NewGradingService(repo, platform, locker, cfg.GAT.LockTTL, recorder, logger)

	return &Service{
		Auth:     NewAuthService(cfg, repo, platform, jwtMgr, blacklist, logger),
		User:     NewUserService(repo, logger),
		Course:   NewCourseService(repo, platform, cfg.Autolab.BaseURL, recorder, logger),
		Roster:   NewRosterService(repo, platform, recorder, logger),
		Conflict: NewConflictService(repo, logger),
		Grading:  grading,
		Export:   NewExportService(grading, logger),
		Section:  NewSectionService(platform, logger),
		Activity: NewActivityService(feed, logger),
	}
}

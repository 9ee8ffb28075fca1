package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/allocation"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/metrics"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/model"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/repository"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/autolab"
	pkgerrors "github.com/UB-CSE-IT/Autolab-Self-Service/pkg/errors"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/redis"
)

// Locker serializes allocation runs per assessment. *redis.Client satisfies it.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (redis.Unlock, error)
}

// GradingService creates grading assignment batches and records progress
// on them.
type GradingService interface {
	CreateAssignment(ctx context.Context, courseName string, actor Actor, req *dto.CreateAssignmentRequest) (*dto.AssignmentDetailResponse, error)
	List(ctx context.Context, courseName string, actor Actor, includeArchived bool) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, assignmentID string, actor Actor) (*dto.AssignmentDetailResponse, error)
	Mine(ctx context.Context, assignmentID string, actor Actor) (*dto.AssignmentDetailResponse, error)
	SetArchived(ctx context.Context, assignmentID string, actor Actor, archived bool) (*dto.AssignmentResponse, error)
	SetPairCompleted(ctx context.Context, pairID string, actor Actor, completed bool) (*dto.PairResponse, error)
}

type gradingService struct {
	repo     *repository.Repository
	platform autolab.API
	locker   Locker
	lockTTL  time.Duration
	recorder metrics.Recorder
	seed     func() uint64
	logger   *zap.Logger
}

// NewGradingService creates a GradingService. locker may be nil, in which
// case the database unique index alone prevents duplicate active batches.
func NewGradingService(
	repo *repository.Repository,
	platform autolab.API,
	locker Locker,
	lockTTL time.Duration,
	recorder metrics.Recorder,
	logger *zap.Logger,
) GradingService {
	return &gradingService{
		repo:     repo,
		platform: platform,
		locker:   locker,
		lockTTL:  lockTTL,
		recorder: recorder,
		seed:     rand.Uint64,
		logger:   logger,
	}
}

// ═══════════════════════════════════════════════════════════
// CreateAssignment — plan, sample and materialize one batch
// ═══════════════════════════════════════════════════════════

type submissionInput struct {
	Submissions []submissionRow `json:"submissions" validate:"dive"`
}

type submissionRow struct {
	Email   string `json:"email"   validate:"required,email,max=255"`
	Version int    `json:"version" validate:"gte=0"`
	URL     string `json:"url"     validate:"max=1024"`
}

// allocationInputs everything one run reads before sampling.
type allocationInputs struct {
	submissions *autolab.AssessmentSubmissions
	roster      []model.CourseUser
	conflicts   []model.ConflictOfInterest
}

func (s *gradingService) CreateAssignment(ctx context.Context, courseName string, actor Actor, req *dto.CreateAssignmentRequest) (*dto.AssignmentDetailResponse, error) {
	start := time.Now()
	defer func() { s.recorder.AllocationDuration(time.Since(start)) }()

	course, err := loadCourse(ctx, s.repo, courseName)
	if err != nil {
		return nil, err
	}
	if err := requireRosterRole(ctx, s.repo, course, actor, graderRoles...); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, course, req.AssessmentName)
	if err != nil {
		s.recorder.AllocationFailed(metrics.ReasonLocked)
		return nil, err
	}
	defer unlock()

	in, err := s.gatherInputs(ctx, course, req.AssessmentName)
	if err != nil {
		return nil, err
	}

	subs, err := toAllocationSubmissions(in.submissions.Submissions)
	if err != nil {
		s.recorder.AllocationFailed(metrics.ReasonInvalidInput)
		s.logger.Warn("platform submissions rejected",
			zap.String("course", courseName), zap.String("assessment", req.AssessmentName), zap.Error(err))
		return nil, err
	}

	graders := make([]allocation.GraderHours, 0, len(in.roster))
	for _, e := range in.roster {
		if model.IsGraderRole(e.Role) {
			graders = append(graders, allocation.GraderHours{Email: e.Email, Hours: e.GradingHours})
		}
	}
	conflicts := make([]allocation.ConflictPair, len(in.conflicts))
	for i, c := range in.conflicts {
		conflicts[i] = allocation.ConflictPair{Grader: c.GraderEmail, Student: c.StudentEmail}
	}

	seed := s.seed()
	result, err := allocation.Allocate(graders, conflicts, subs, allocation.NewRand(seed))
	if err != nil {
		s.recordAllocationError(err)
		s.logger.Info("allocation rejected",
			zap.String("course", courseName),
			zap.String("assessment", req.AssessmentName),
			zap.Uint64("seed", seed),
			zap.Error(err),
		)
		return nil, err
	}

	displayName := in.submissions.AssessmentDisplayName
	if displayName == "" {
		displayName = req.AssessmentName
	}
	batch := &model.GradingAssignment{
		CourseID:              course.CourseID,
		AssessmentName:        req.AssessmentName,
		AssessmentDisplayName: displayName,
		CreatedBy:             actor.UserID,
	}
	if err := s.materialize(ctx, batch, result); err != nil {
		if errors.Is(err, ErrActiveAssignmentExists) {
			s.recorder.AllocationFailed(metrics.ReasonDuplicateActive)
			return nil, err
		}
		s.recorder.AllocationFailed(metrics.ReasonPersistence)
		s.logger.Error("materialize batch failed",
			zap.String("course", courseName), zap.String("assessment", req.AssessmentName), zap.Error(err))
		return nil, err
	}

	s.recorder.BatchCreated(courseName, len(batch.Pairs))
	s.logger.Info("grading assignment created",
		zap.String("course", courseName),
		zap.String("assessment", req.AssessmentName),
		zap.String("assignment_id", batch.AssignmentID),
		zap.Int("graders", len(result.Graders)),
		zap.Int("pairs", len(batch.Pairs)),
		zap.Uint64("seed", seed),
	)

	batch.Course = course
	resp := toAssignmentDetail(batch, batch.Pairs)
	return &resp, nil
}

// lock takes the per-assessment lock when a Locker is configured. A lock
// backend failure is logged and the run continues unlocked.
func (s *gradingService) lock(ctx context.Context, course *model.Course, assessment string) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	key := fmt.Sprintf("gat:%s:%s", course.CourseID, assessment)
	release, err := s.locker.AcquireLock(ctx, key, s.lockTTL)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrLockNotAcquired) {
			return nil, ErrAssignmentLocked
		}
		s.logger.Warn("allocation lock unavailable, relying on unique index", zap.String("key", key), zap.Error(err))
		return noop, nil
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := release(ctx); err != nil {
			s.logger.Warn("release allocation lock failed", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// gatherInputs fetches submissions, roster and conflicts concurrently.
func (s *gradingService) gatherInputs(ctx context.Context, course *model.Course, assessment string) (*allocationInputs, error) {
	var in allocationInputs
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		subs, err := s.platform.AssessmentSubmissions(gctx, course.Name, assessment)
		if err != nil {
			// Cancelled by a failing sibling or the caller, not an upstream fault.
			if errors.Is(err, context.Canceled) && gctx.Err() != nil {
				return err
			}
			s.logger.Warn("fetch submissions failed",
				zap.String("course", course.Name), zap.String("assessment", assessment), zap.Error(err))
			s.recorder.AllocationFailed(metrics.ReasonUpstream)
			return upstreamError(err)
		}
		in.submissions = subs
		return nil
	})
	g.Go(func() error {
		roster, err := s.repo.Roster.ListByCourse(gctx, course.CourseID)
		if err != nil {
			s.logger.Error("list roster failed", zap.String("course", course.Name), zap.Error(err))
			return &PersistenceError{Op: "list roster", Err: err}
		}
		in.roster = roster
		return nil
	})
	g.Go(func() error {
		conflicts, err := s.repo.Conflict.ListByCourse(gctx, course.CourseID)
		if err != nil {
			s.logger.Error("list conflicts failed", zap.String("course", course.Name), zap.Error(err))
			return &PersistenceError{Op: "list conflicts", Err: err}
		}
		in.conflicts = conflicts
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &in, nil
}

// toAllocationSubmissions validates platform rows and rejects a student
// appearing twice, since every student must map to exactly one pair.
func toAllocationSubmissions(rows []autolab.Submission) ([]allocation.Submission, error) {
	input := submissionInput{Submissions: make([]submissionRow, len(rows))}
	for i, r := range rows {
		input.Submissions[i] = submissionRow{Email: normalizeEmail(r.Email), Version: r.Version, URL: r.URL}
	}

	var problems []string
	if err := validate.Struct(input); err != nil {
		problems = validationProblems(err)
	}
	seen := make(map[string]bool, len(rows))
	out := make([]allocation.Submission, len(rows))
	for i, r := range input.Submissions {
		if seen[r.Email] {
			problems = append(problems, fmt.Sprintf("%s has more than one submission", r.Email))
		}
		seen[r.Email] = true
		out[i] = allocation.Submission{StudentEmail: r.Email, Version: r.Version, URL: r.URL}
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Kind: ErrInvalidSubmissions, Problems: problems}
	}
	return out, nil
}

func (s *gradingService) recordAllocationError(err error) {
	switch {
	case errors.Is(err, allocation.ErrNoEligibleGrader):
		s.recorder.AllocationFailed(metrics.ReasonNoEligibleGrader)
	case errors.Is(err, allocation.ErrUnassignableStudent):
		s.recorder.AllocationFailed(metrics.ReasonUnassignable)
	}
}

// materialize writes the batch and all its pairs in one transaction and
// leaves the created pairs on batch.Pairs.
func (s *gradingService) materialize(ctx context.Context, batch *model.GradingAssignment, result *allocation.Allocation) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Assignment.Create(ctx, batch); err != nil {
			return err
		}

		pairs := make([]model.GradingAssignmentPair, 0, result.Total())
		for _, p := range result.Pairs() {
			pairs = append(pairs, model.GradingAssignmentPair{
				AssignmentID:      batch.AssignmentID,
				GraderEmail:       p.Grader,
				StudentEmail:      p.Submission.StudentEmail,
				SubmissionURL:     p.Submission.URL,
				SubmissionVersion: p.Submission.Version,
			})
		}
		if len(pairs) > 0 {
			if err := tx.Assignment.CreatePairs(ctx, pairs); err != nil {
				return err
			}
		}
		batch.Pairs = pairs
		return nil
	})
	if err != nil {
		batch.Pairs = nil
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrActiveAssignmentExists
		}
		return &PersistenceError{Op: "materialize grading assignment", Err: err}
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// Reads
// ═══════════════════════════════════════════════════════════

func toAssignmentResponse(a *model.GradingAssignment, total, completed int) dto.AssignmentResponse {
	resp := dto.AssignmentResponse{
		ID:                    a.AssignmentID,
		AssessmentName:        a.AssessmentName,
		AssessmentDisplayName: a.AssessmentDisplayName,
		CreatedBy:             a.CreatedBy,
		CreatedAt:             formatTime(a.CreatedAt),
		Archived:              a.Archived,
		TotalPairs:            total,
		CompletedPairs:        completed,
	}
	if a.Course != nil {
		resp.CourseName = a.Course.Name
	}
	return resp
}

func toPairResponse(p *model.GradingAssignmentPair) dto.PairResponse {
	return dto.PairResponse{
		ID:                p.PairID,
		GraderEmail:       p.GraderEmail,
		StudentEmail:      p.StudentEmail,
		SubmissionURL:     p.SubmissionURL,
		SubmissionVersion: p.SubmissionVersion,
		Completed:         p.Completed,
	}
}

// toAssignmentDetail groups pairs by grader, graders and students in email order.
func toAssignmentDetail(a *model.GradingAssignment, pairs []model.GradingAssignmentPair) dto.AssignmentDetailResponse {
	byGrader := make(map[string][]dto.PairResponse)
	completed := 0
	for i := range pairs {
		p := &pairs[i]
		byGrader[p.GraderEmail] = append(byGrader[p.GraderEmail], toPairResponse(p))
		if p.Completed {
			completed++
		}
	}

	graders := make([]dto.GraderPairsResponse, 0, len(byGrader))
	for email, ps := range byGrader {
		sort.Slice(ps, func(i, j int) bool { return ps[i].StudentEmail < ps[j].StudentEmail })
		graders = append(graders, dto.GraderPairsResponse{GraderEmail: email, Pairs: ps})
	}
	sort.Slice(graders, func(i, j int) bool { return graders[i].GraderEmail < graders[j].GraderEmail })

	return dto.AssignmentDetailResponse{
		AssignmentResponse: toAssignmentResponse(a, len(pairs), completed),
		Graders:            graders,
	}
}

func (s *gradingService) List(ctx context.Context, courseName string, actor Actor, includeArchived bool) ([]dto.AssignmentResponse, error) {
	course, err := loadCourse(ctx, s.repo, courseName)
	if err != nil {
		return nil, err
	}
	if err := requireRosterRole(ctx, s.repo, course, actor, graderRoles...); err != nil {
		return nil, err
	}

	batches, err := s.repo.Assignment.ListByCourse(ctx, course.CourseID, includeArchived)
	if err != nil {
		s.logger.Error("list assignments failed", zap.String("course", courseName), zap.Error(err))
		return nil, &PersistenceError{Op: "list assignments", Err: err}
	}
	ids := make([]string, len(batches))
	for i, b := range batches {
		ids[i] = b.AssignmentID
	}
	stats, err := s.repo.Assignment.PairStats(ctx, ids)
	if err != nil {
		s.logger.Error("pair stats failed", zap.String("course", courseName), zap.Error(err))
		return nil, &PersistenceError{Op: "pair stats", Err: err}
	}

	out := make([]dto.AssignmentResponse, len(batches))
	for i := range batches {
		batches[i].Course = course
		st := stats[batches[i].AssignmentID]
		out[i] = toAssignmentResponse(&batches[i], int(st.Total), int(st.Completed))
	}
	return out, nil
}

// loadAssignment loads a batch with its course and checks the caller may see
// it. Pairs are loaded only when withPairs is set.
func (s *gradingService) loadAssignment(ctx context.Context, id string, withPairs bool, actor Actor, roles ...string) (*model.GradingAssignment, error) {
	get := s.repo.Assignment.GetByID
	if withPairs {
		get = s.repo.Assignment.GetWithPairs
	}
	batch, err := get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("load assignment failed", zap.String("assignment_id", id), zap.Error(err))
		return nil, &PersistenceError{Op: "load assignment", Err: err}
	}
	if batch.Course == nil {
		course, err := s.repo.Course.GetByID(ctx, batch.CourseID)
		if err != nil {
			s.logger.Error("load course of assignment failed", zap.String("assignment_id", id), zap.Error(err))
			return nil, &PersistenceError{Op: "load course", Err: err}
		}
		batch.Course = course
	}
	if err := requireRosterRole(ctx, s.repo, batch.Course, actor, roles...); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *gradingService) Get(ctx context.Context, assignmentID string, actor Actor) (*dto.AssignmentDetailResponse, error) {
	batch, err := s.loadAssignment(ctx, assignmentID, true, actor, graderRoles...)
	if err != nil {
		return nil, err
	}
	resp := toAssignmentDetail(batch, batch.Pairs)
	return &resp, nil
}

func (s *gradingService) Mine(ctx context.Context, assignmentID string, actor Actor) (*dto.AssignmentDetailResponse, error) {
	batch, err := s.loadAssignment(ctx, assignmentID, false, actor, graderRoles...)
	if err != nil {
		return nil, err
	}

	mine, err := s.repo.Assignment.ListPairsByGrader(ctx, assignmentID, normalizeEmail(actor.Email))
	if err != nil {
		s.logger.Error("list own pairs failed", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil, &PersistenceError{Op: "list own pairs", Err: err}
	}
	resp := toAssignmentDetail(batch, mine)
	return &resp, nil
}

// ═══════════════════════════════════════════════════════════
// Mutations — archive flag and pair completion
// ═══════════════════════════════════════════════════════════

func (s *gradingService) SetArchived(ctx context.Context, assignmentID string, actor Actor, archived bool) (*dto.AssignmentResponse, error) {
	batch, err := s.loadAssignment(ctx, assignmentID, false, actor, model.RoleInstructor)
	if err != nil {
		return nil, err
	}

	changed, err := s.repo.Assignment.SetArchived(ctx, assignmentID, archived)
	if err != nil {
		// Unarchiving while another batch for the assessment is active.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrActiveAssignmentExists
		}
		s.logger.Error("set archived failed", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil, &PersistenceError{Op: "set archived", Err: err}
	}
	if !changed {
		return nil, ErrNoOpToggle
	}

	batch.Archived = archived
	s.logger.Info("grading assignment archive flag changed",
		zap.String("assignment_id", assignmentID), zap.Bool("archived", archived))

	stats, err := s.repo.Assignment.PairStats(ctx, []string{assignmentID})
	if err != nil {
		s.logger.Error("pair stats failed", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil, &PersistenceError{Op: "pair stats", Err: err}
	}
	st := stats[assignmentID]
	resp := toAssignmentResponse(batch, int(st.Total), int(st.Completed))
	return &resp, nil
}

func (s *gradingService) SetPairCompleted(ctx context.Context, pairID string, actor Actor, completed bool) (*dto.PairResponse, error) {
	pair, err := s.repo.Assignment.GetPair(ctx, pairID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPairNotFound
		}
		s.logger.Error("load pair failed", zap.String("pair_id", pairID), zap.Error(err))
		return nil, &PersistenceError{Op: "load pair", Err: err}
	}
	if !actor.IsAdmin && pair.GraderEmail != normalizeEmail(actor.Email) {
		return nil, ErrNotPairGrader
	}

	changed, err := s.repo.Assignment.SetPairCompleted(ctx, pairID, completed)
	if err != nil {
		s.logger.Error("set pair completed failed", zap.String("pair_id", pairID), zap.Error(err))
		return nil, &PersistenceError{Op: "set pair completed", Err: err}
	}
	if !changed {
		return nil, ErrNoOpToggle
	}

	pair.Completed = completed
	resp := toPairResponse(pair)
	return &resp, nil
}

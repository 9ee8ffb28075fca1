package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/model"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/repository"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/autolab"
	pkgerrors "github.com/UB-CSE-IT/Autolab-Self-Service/pkg/errors"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/redis"
)

// ═══════════════════════════════════════════════════════════
// memStore — map-backed tables shared by every mock repository
// ═══════════════════════════════════════════════════════════

var baseTime = time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)

type memTables struct {
	users       map[string]model.User
	courses     map[string]model.Course
	roster      map[string]model.CourseUser
	conflicts   map[string]model.ConflictOfInterest
	assignments map[string]model.GradingAssignment
	pairs       map[string]model.GradingAssignmentPair
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (t memTables) clone() memTables {
	return memTables{
		users:       copyMap(t.users),
		courses:     copyMap(t.courses),
		roster:      copyMap(t.roster),
		conflicts:   copyMap(t.conflicts),
		assignments: copyMap(t.assignments),
		pairs:       copyMap(t.pairs),
	}
}

type memStore struct {
	mu     sync.Mutex
	t      memTables
	seq    int
	writes int
	failOn map[string]error // "roster.BatchCreate" -> error
}

func newMemStore() *memStore {
	return &memStore{
		t: memTables{
			users:       make(map[string]model.User),
			courses:     make(map[string]model.Course),
			roster:      make(map[string]model.CourseUser),
			conflicts:   make(map[string]model.ConflictOfInterest),
			assignments: make(map[string]model.GradingAssignment),
			pairs:       make(map[string]model.GradingAssignmentPair),
		},
		failOn: make(map[string]error),
	}
}

// nextID is called with mu held.
func (s *memStore) nextID(prefix string) (string, time.Time) {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq), baseTime.Add(time.Duration(s.seq) * time.Second)
}

func (s *memStore) fail(op string) error {
	return s.failOn[op]
}

// write is called with mu held by every mutating method.
func (s *memStore) write(op string) error {
	if err := s.fail(op); err != nil {
		return err
	}
	s.writes++
	return nil
}

func (s *memStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// repository builds a Repository whose transactions roll the tables back
// on error.
func (s *memStore) repository() *repository.Repository {
	repo := &repository.Repository{
		User:       &memUserRepo{s},
		Course:     &memCourseRepo{s},
		Roster:     &memRosterRepo{s},
		Conflict:   &memConflictRepo{s},
		Assignment: &memAssignmentRepo{s},
	}
	repo.Tx = &memTransactor{store: s, repo: repo}
	return repo
}

type memTransactor struct {
	store *memStore
	repo  *repository.Repository
}

func (t *memTransactor) Transaction(_ context.Context, fn func(tx *repository.Repository) error) error {
	t.store.mu.Lock()
	snap := t.store.t.clone()
	writes := t.store.writes
	t.store.mu.Unlock()

	if err := fn(t.repo); err != nil {
		t.store.mu.Lock()
		t.store.t = snap
		t.store.writes = writes
		t.store.mu.Unlock()
		return err
	}
	return nil
}

// ── Mock UserRepository ──

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("user.Create"); err != nil {
		return err
	}
	for _, u := range r.s.t.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		user.UserID, user.CreatedAt = r.s.nextID("user")
	}
	r.s.t.users[user.UserID] = *user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.t.users[id]; ok {
		return &u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.t.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) Update(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("user.Update"); err != nil {
		return err
	}
	r.s.t.users[user.UserID] = *user
	return nil
}

func (r *memUserRepo) SetAdmin(_ context.Context, id string, isAdmin bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("user.SetAdmin"); err != nil {
		return err
	}
	u, ok := r.s.t.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsAdmin = isAdmin
	r.s.t.users[id] = u
	return nil
}

func (r *memUserRepo) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]model.User, 0, len(r.s.t.users))
	for _, u := range r.s.t.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.User{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ── Mock CourseRepository ──

type memCourseRepo struct{ s *memStore }

func (r *memCourseRepo) Create(_ context.Context, course *model.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("course.Create"); err != nil {
		return err
	}
	for _, c := range r.s.t.courses {
		if c.Name == course.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if course.CourseID == "" {
		course.CourseID, course.CreatedAt = r.s.nextID("course")
	}
	r.s.t.courses[course.CourseID] = *course
	return nil
}

func (r *memCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.t.courses[id]; ok {
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memCourseRepo) GetByName(_ context.Context, name string) (*model.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("course.GetByName"); err != nil {
		return nil, err
	}
	for _, c := range r.s.t.courses {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memCourseRepo) List(_ context.Context) ([]model.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Course, 0, len(r.s.t.courses))
	for _, c := range r.s.t.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memCourseRepo) MarkSynced(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("course.MarkSynced"); err != nil {
		return err
	}
	c, ok := r.s.t.courses[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.LastSyncedAt = &at
	r.s.t.courses[id] = c
	return nil
}

// ── Mock RosterRepository ──

type memRosterRepo struct{ s *memStore }

func (r *memRosterRepo) ListByCourse(_ context.Context, courseID string) ([]model.CourseUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("roster.ListByCourse"); err != nil {
		return nil, err
	}
	out := []model.CourseUser{}
	for _, e := range r.s.t.roster {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *memRosterRepo) GetByEmail(_ context.Context, courseID, email string) (*model.CourseUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("roster.GetByEmail"); err != nil {
		return nil, err
	}
	for _, e := range r.s.t.roster {
		if e.CourseID == courseID && e.Email == email {
			return &e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRosterRepo) BatchCreate(_ context.Context, entries []model.CourseUser) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("roster.BatchCreate"); err != nil {
		return err
	}
	for i := range entries {
		for _, e := range r.s.t.roster {
			if e.CourseID == entries[i].CourseID && e.Email == entries[i].Email {
				return gorm.ErrDuplicatedKey
			}
		}
		entries[i].CourseUserID, entries[i].CreatedAt = r.s.nextID("cu")
		r.s.t.roster[entries[i].CourseUserID] = entries[i]
	}
	return nil
}

func (r *memRosterRepo) UpdateProfile(_ context.Context, id, displayName, role string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("roster.UpdateProfile"); err != nil {
		return err
	}
	e, ok := r.s.t.roster[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.DisplayName = displayName
	e.Role = role
	r.s.t.roster[id] = e
	return nil
}

func (r *memRosterRepo) DeleteByIDs(_ context.Context, ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("roster.DeleteByIDs"); err != nil {
		return err
	}
	for _, id := range ids {
		delete(r.s.t.roster, id)
	}
	return nil
}

func (r *memRosterRepo) SetGradingHours(_ context.Context, courseID, email string, hours int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("roster.SetGradingHours"); err != nil {
		return err
	}
	for id, e := range r.s.t.roster {
		if e.CourseID == courseID && e.Email == email {
			e.GradingHours = hours
			r.s.t.roster[id] = e
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock ConflictRepository ──

type memConflictRepo struct{ s *memStore }

func (r *memConflictRepo) Create(_ context.Context, c *model.ConflictOfInterest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("conflict.Create"); err != nil {
		return err
	}
	for _, e := range r.s.t.conflicts {
		if e.CourseID == c.CourseID && e.GraderEmail == c.GraderEmail && e.StudentEmail == c.StudentEmail {
			return gorm.ErrDuplicatedKey
		}
	}
	c.ConflictID, c.CreatedAt = r.s.nextID("coi")
	r.s.t.conflicts[c.ConflictID] = *c
	return nil
}

func (r *memConflictRepo) ListByCourse(_ context.Context, courseID string) ([]model.ConflictOfInterest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("conflict.ListByCourse"); err != nil {
		return nil, err
	}
	out := []model.ConflictOfInterest{}
	for _, c := range r.s.t.conflicts {
		if c.CourseID == courseID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GraderEmail != out[j].GraderEmail {
			return out[i].GraderEmail < out[j].GraderEmail
		}
		return out[i].StudentEmail < out[j].StudentEmail
	})
	return out, nil
}

func (r *memConflictRepo) Exists(_ context.Context, courseID, graderEmail, studentEmail string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.t.conflicts {
		if c.CourseID == courseID && c.GraderEmail == graderEmail && c.StudentEmail == studentEmail {
			return true, nil
		}
	}
	return false, nil
}

func (r *memConflictRepo) Delete(_ context.Context, courseID, conflictID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("conflict.Delete"); err != nil {
		return err
	}
	c, ok := r.s.t.conflicts[conflictID]
	if !ok || c.CourseID != courseID {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.t.conflicts, conflictID)
	return nil
}

// ── Mock AssignmentRepository ──

type memAssignmentRepo struct{ s *memStore }

// activeExists is called with mu held.
func (r *memAssignmentRepo) activeExists(courseID, assessment, exceptID string) bool {
	for _, a := range r.s.t.assignments {
		if a.AssignmentID != exceptID && a.CourseID == courseID && a.AssessmentName == assessment && !a.Archived {
			return true
		}
	}
	return false
}

func (r *memAssignmentRepo) Create(_ context.Context, a *model.GradingAssignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("assignment.Create"); err != nil {
		return err
	}
	if !a.Archived && r.activeExists(a.CourseID, a.AssessmentName, "") {
		return gorm.ErrDuplicatedKey
	}
	a.AssignmentID, a.CreatedAt = r.s.nextID("gat")
	stored := *a
	stored.Course, stored.Pairs = nil, nil
	r.s.t.assignments[a.AssignmentID] = stored
	return nil
}

func (r *memAssignmentRepo) CreatePairs(_ context.Context, pairs []model.GradingAssignmentPair) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("assignment.CreatePairs"); err != nil {
		return err
	}
	for i := range pairs {
		for _, p := range r.s.t.pairs {
			if p.AssignmentID == pairs[i].AssignmentID && p.StudentEmail == pairs[i].StudentEmail {
				return gorm.ErrDuplicatedKey
			}
		}
		pairs[i].PairID, pairs[i].UpdatedAt = r.s.nextID("pair")
		r.s.t.pairs[pairs[i].PairID] = pairs[i]
	}
	return nil
}

func (r *memAssignmentRepo) GetByID(_ context.Context, id string) (*model.GradingAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("assignment.GetByID"); err != nil {
		return nil, err
	}
	a, ok := r.s.t.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if c, ok := r.s.t.courses[a.CourseID]; ok {
		a.Course = &c
	}
	return &a, nil
}

// pairsOf is called with mu held.
func (r *memAssignmentRepo) pairsOf(assignmentID string) []model.GradingAssignmentPair {
	out := []model.GradingAssignmentPair{}
	for _, p := range r.s.t.pairs {
		if p.AssignmentID == assignmentID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GraderEmail != out[j].GraderEmail {
			return out[i].GraderEmail < out[j].GraderEmail
		}
		return out[i].StudentEmail < out[j].StudentEmail
	})
	return out
}

func (r *memAssignmentRepo) GetWithPairs(_ context.Context, id string) (*model.GradingAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("assignment.GetWithPairs"); err != nil {
		return nil, err
	}
	a, ok := r.s.t.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if c, ok := r.s.t.courses[a.CourseID]; ok {
		a.Course = &c
	}
	a.Pairs = r.pairsOf(id)
	return &a, nil
}

func (r *memAssignmentRepo) ListByCourse(_ context.Context, courseID string, includeArchived bool) ([]model.GradingAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.GradingAssignment{}
	for _, a := range r.s.t.assignments {
		if a.CourseID == courseID && (includeArchived || !a.Archived) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memAssignmentRepo) PairStats(_ context.Context, ids []string) (map[string]repository.PairStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("assignment.PairStats"); err != nil {
		return nil, err
	}
	stats := make(map[string]repository.PairStats, len(ids))
	for _, id := range ids {
		st := repository.PairStats{AssignmentID: id}
		for _, p := range r.pairsOf(id) {
			st.Total++
			if p.Completed {
				st.Completed++
			}
		}
		stats[id] = st
	}
	return stats, nil
}

func (r *memAssignmentRepo) ListPairsByGrader(_ context.Context, assignmentID, graderEmail string) ([]model.GradingAssignmentPair, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("assignment.ListPairsByGrader"); err != nil {
		return nil, err
	}
	out := []model.GradingAssignmentPair{}
	for _, p := range r.pairsOf(assignmentID) {
		if p.GraderEmail == graderEmail {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memAssignmentRepo) GetPair(_ context.Context, pairID string) (*model.GradingAssignmentPair, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("assignment.GetPair"); err != nil {
		return nil, err
	}
	if p, ok := r.s.t.pairs[pairID]; ok {
		return &p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memAssignmentRepo) SetPairCompleted(_ context.Context, pairID string, completed bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("assignment.SetPairCompleted"); err != nil {
		return false, err
	}
	p, ok := r.s.t.pairs[pairID]
	if !ok || p.Completed == completed {
		return false, nil
	}
	r.s.writes++
	p.Completed = completed
	r.s.t.pairs[pairID] = p
	return true, nil
}

func (r *memAssignmentRepo) SetArchived(_ context.Context, id string, archived bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("assignment.SetArchived"); err != nil {
		return false, err
	}
	a, ok := r.s.t.assignments[id]
	if !ok || a.Archived == archived {
		return false, nil
	}
	if !archived && r.activeExists(a.CourseID, a.AssessmentName, id) {
		return false, gorm.ErrDuplicatedKey
	}
	r.s.writes++
	a.Archived = archived
	r.s.t.assignments[id] = a
	return true, nil
}

// ═══════════════════════════════════════════════════════════
// Fakes — platform, lock and metrics
// ═══════════════════════════════════════════════════════════

type fakePlatform struct {
	mu          sync.Mutex
	userCourses map[string][]autolab.Course // by email
	users       map[string]*autolab.CourseUsers
	assessments map[string]*autolab.CourseAssessments
	submissions map[string]*autolab.AssessmentSubmissions // "course/assessment"
	sections    map[string]*autolab.CourseSections
	admins      map[string]bool
	created     []autolab.NewCourse
	upserted    map[string][]autolab.Section
	err         error
	// hang makes AssessmentSubmissions wait for its context.
	hang bool
}

var _ autolab.API = (*fakePlatform)(nil)

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		userCourses: make(map[string][]autolab.Course),
		users:       make(map[string]*autolab.CourseUsers),
		assessments: make(map[string]*autolab.CourseAssessments),
		submissions: make(map[string]*autolab.AssessmentSubmissions),
		sections:    make(map[string]*autolab.CourseSections),
		admins:      make(map[string]bool),
		upserted:    make(map[string][]autolab.Section),
	}
}

func (p *fakePlatform) UserCourses(_ context.Context, email string) (*autolab.UserCourses, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &autolab.UserCourses{Email: email, Courses: p.userCourses[email]}, nil
}

func (p *fakePlatform) CourseUsers(_ context.Context, courseName string) (*autolab.CourseUsers, error) {
	if p.err != nil {
		return nil, p.err
	}
	if u, ok := p.users[courseName]; ok {
		return u, nil
	}
	return nil, &autolab.APIError{Status: 404, Body: "course not found"}
}

func (p *fakePlatform) CourseAssessments(_ context.Context, courseName string) (*autolab.CourseAssessments, error) {
	if p.err != nil {
		return nil, p.err
	}
	if a, ok := p.assessments[courseName]; ok {
		return a, nil
	}
	return &autolab.CourseAssessments{CourseName: courseName}, nil
}

func (p *fakePlatform) AssessmentSubmissions(ctx context.Context, courseName, assessmentName string) (*autolab.AssessmentSubmissions, error) {
	if p.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.err != nil {
		return nil, p.err
	}
	if s, ok := p.submissions[courseName+"/"+assessmentName]; ok {
		return s, nil
	}
	return nil, &autolab.APIError{Status: 404, Body: "assessment not found"}
}

func (p *fakePlatform) CheckAdmin(_ context.Context, email string) (bool, error) {
	if p.err != nil {
		return false, p.err
	}
	return p.admins[email], nil
}

func (p *fakePlatform) CourseSections(_ context.Context, courseName string) (*autolab.CourseSections, error) {
	if p.err != nil {
		return nil, p.err
	}
	if s, ok := p.sections[courseName]; ok {
		return s, nil
	}
	return &autolab.CourseSections{CourseName: courseName}, nil
}

func (p *fakePlatform) UpsertCourseSections(_ context.Context, courseName string, sections []autolab.Section) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.upserted[courseName] = sections
	return nil
}

func (p *fakePlatform) CreateCourse(_ context.Context, course autolab.NewCourse) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, course)
	return nil
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	released []string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (redis.Unlock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	if l.held[key] {
		return nil, pkgerrors.ErrLockNotAcquired
	}
	l.held[key] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		l.released = append(l.released, key)
		return nil
	}, nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	batches  map[string]int
	pairs    int
	failures []string
	roster   map[string]int
	runs     int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{batches: make(map[string]int), roster: make(map[string]int)}
}

func (r *fakeRecorder) BatchCreated(course string, pairs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[course]++
	r.pairs += pairs
}

func (r *fakeRecorder) AllocationFailed(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, reason)
}

func (r *fakeRecorder) AllocationDuration(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
}

func (r *fakeRecorder) RosterChanged(op string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roster[op] += n
}

// ── Seeding helpers ──

func seedCourse(s *memStore, name string, entries ...model.CourseUser) model.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := model.Course{Name: name, DisplayName: name + " display", CreatedBy: "user-seed"}
	c.CourseID, c.CreatedAt = s.nextID("course")
	s.t.courses[c.CourseID] = c
	for _, e := range entries {
		e.CourseID = c.CourseID
		e.CourseUserID, e.CreatedAt = s.nextID("cu")
		s.t.roster[e.CourseUserID] = e
	}
	return c
}

func seedConflict(s *memStore, courseID, grader, student string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := model.ConflictOfInterest{CourseID: courseID, GraderEmail: grader, StudentEmail: student}
	c.ConflictID, c.CreatedAt = s.nextID("coi")
	s.t.conflicts[c.ConflictID] = c
}

func member(email, name, role string, hours int) model.CourseUser {
	return model.CourseUser{Email: email, DisplayName: name, Role: role, GradingHours: hours}
}

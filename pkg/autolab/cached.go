package autolab

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache stores JSON-encodable values with a TTL. *redis.Client satisfies it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// TTLs per cached read.
type TTLs struct {
	UserCourses time.Duration
	CourseUsers time.Duration
	Assessments time.Duration
	Submissions time.Duration
}

// CachedClient serves repeated reads from a cache and collapses concurrent
// identical fetches into one upstream call. Admin checks, sections and
// writes always go to the platform. Returned values are shared between
// callers and must not be modified.
type CachedClient struct {
	next   API
	cache  Cache
	ttl    TTLs
	group  singleflight.Group
	logger *zap.Logger
}

var _ API = (*CachedClient)(nil)

// NewCachedClient wraps next. A nil cache still deduplicates in-flight calls.
func NewCachedClient(next API, cache Cache, ttl TTLs, logger *zap.Logger) *CachedClient {
	return &CachedClient{next: next, cache: cache, ttl: ttl, logger: logger}
}

func cachedFetch[T any](ctx context.Context, c *CachedClient, key string, ttl time.Duration, fetch func(context.Context) (*T, error)) (*T, error) {
	if c.cache != nil {
		var hit T
		ok, err := c.cache.GetJSON(ctx, key, &hit)
		if err != nil {
			c.logger.Warn("autolab cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			return &hit, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		fresh, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if c.cache != nil {
			if err := c.cache.SetJSON(ctx, key, fresh, ttl); err != nil {
				c.logger.Warn("autolab cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

func (c *CachedClient) UserCourses(ctx context.Context, email string) (*UserCourses, error) {
	return cachedFetch(ctx, c, "autolab:user_courses:"+email, c.ttl.UserCourses,
		func(ctx context.Context) (*UserCourses, error) { return c.next.UserCourses(ctx, email) })
}

func (c *CachedClient) CourseUsers(ctx context.Context, courseName string) (*CourseUsers, error) {
	return cachedFetch(ctx, c, "autolab:course_users:"+courseName, c.ttl.CourseUsers,
		func(ctx context.Context) (*CourseUsers, error) { return c.next.CourseUsers(ctx, courseName) })
}

func (c *CachedClient) CourseAssessments(ctx context.Context, courseName string) (*CourseAssessments, error) {
	return cachedFetch(ctx, c, "autolab:course_assessments:"+courseName, c.ttl.Assessments,
		func(ctx context.Context) (*CourseAssessments, error) { return c.next.CourseAssessments(ctx, courseName) })
}

func (c *CachedClient) AssessmentSubmissions(ctx context.Context, courseName, assessmentName string) (*AssessmentSubmissions, error) {
	return cachedFetch(ctx, c, "autolab:submissions:"+courseName+":"+assessmentName, c.ttl.Submissions,
		func(ctx context.Context) (*AssessmentSubmissions, error) {
			return c.next.AssessmentSubmissions(ctx, courseName, assessmentName)
		})
}

func (c *CachedClient) CheckAdmin(ctx context.Context, email string) (bool, error) {
	return c.next.CheckAdmin(ctx, email)
}

func (c *CachedClient) CourseSections(ctx context.Context, courseName string) (*CourseSections, error) {
	return c.next.CourseSections(ctx, courseName)
}

func (c *CachedClient) UpsertCourseSections(ctx context.Context, courseName string, sections []Section) error {
	return c.next.UpsertCourseSections(ctx, courseName, sections)
}

func (c *CachedClient) CreateCourse(ctx context.Context, course NewCourse) error {
	return c.next.CreateCourse(ctx, course)
}

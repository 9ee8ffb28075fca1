package autolab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrRateLimited the platform answered 429. Not retried.
	ErrRateLimited = errors.New("autolab API rate limit exceeded, try again in a few seconds")

	// ErrNoRefreshToken no refresh token has been provisioned yet.
	ErrNoRefreshToken = errors.New("autolab refresh token is not configured")
)

// APIError is a non-200 answer that survived one token refresh.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("autolab API returned %d: %s", e.Status, e.Body)
}

// API is the subset of the platform the portal talks to.
type API interface {
	UserCourses(ctx context.Context, email string) (*UserCourses, error)
	CourseUsers(ctx context.Context, courseName string) (*CourseUsers, error)
	CourseAssessments(ctx context.Context, courseName string) (*CourseAssessments, error)
	AssessmentSubmissions(ctx context.Context, courseName, assessmentName string) (*AssessmentSubmissions, error)
	CheckAdmin(ctx context.Context, email string) (bool, error)
	CourseSections(ctx context.Context, courseName string) (*CourseSections, error)
	UpsertCourseSections(ctx context.Context, courseName string, sections []Section) error
	CreateCourse(ctx context.Context, course NewCourse) error
}

// TokenStore persists the OAuth refresh token. The platform rotates it on
// every refresh, so the new value must be saved before the old is lost.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
}

// FileTokenStore keeps the refresh token in a single file.
type FileTokenStore struct {
	Path string
}

func (s FileTokenStore) Load() (string, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (s FileTokenStore) Save(token string) error {
	return os.WriteFile(s.Path, []byte(token), 0o600)
}

// Options configures a Client.
type Options struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Timeout      time.Duration
	Tokens       TokenStore
	HTTPClient   *http.Client
}

// Client calls the platform REST API with a bearer access token obtained
// through the refresh token grant.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	redirectURI  string
	http         *http.Client
	tokens       TokenStore
	logger       *zap.Logger

	mu          sync.Mutex
	accessToken string
}

// NewClient creates a Client. No request is made until the first call.
func NewClient(opts Options, logger *zap.Logger) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		redirectURI:  opts.RedirectURI,
		http:         hc,
		tokens:       opts.Tokens,
		logger:       logger,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// refresh exchanges the stored refresh token for a new access token.
// Callers hold c.mu.
func (c *Client) refresh(ctx context.Context) error {
	current, err := c.tokens.Load()
	if err != nil {
		return fmt.Errorf("load refresh token: %w", err)
	}
	if current == "" {
		return ErrNoRefreshToken
	}

	tok, err := c.grant(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {current},
	})
	if err != nil {
		return fmt.Errorf("refresh access token: %w", err)
	}
	c.accessToken = tok.AccessToken
	c.logger.Debug("autolab access token refreshed")
	return nil
}

// grant posts an OAuth token request as a form body and stores the rotated
// refresh token. Client credentials are added here.
func (c *Client) grant(ctx context.Context, form url.Values) (*tokenResponse, error) {
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, redactURL(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, errors.New("token response carried no access token")
	}
	if tok.RefreshToken != "" {
		if err := c.tokens.Save(tok.RefreshToken); err != nil {
			return nil, fmt.Errorf("store refresh token: %w", err)
		}
	}
	return &tok, nil
}

// redactURL strips the query string from transport errors so request
// parameters never end up in logs.
func redactURL(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	redacted := "<redacted>"
	if u, perr := url.Parse(uerr.URL); perr == nil {
		u.RawQuery = ""
		u.User = nil
		redacted = u.String()
	}
	return &url.Error{Op: uerr.Op, URL: redacted, Err: uerr.Err}
}

func (c *Client) token(ctx context.Context, forceRefresh bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken == "" || forceRefresh {
		if err := c.refresh(ctx); err != nil {
			return "", err
		}
	}
	return c.accessToken, nil
}

// do sends one API request. A non-200 answer other than 429 triggers a
// single token refresh and retry.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	for attempt := 0; attempt < 2; attempt++ {
		tok, err := c.token(ctx, attempt > 0)
		if err != nil {
			return err
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		target := c.baseURL + path
		if len(params) > 0 {
			target += "?" + params.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, redactURL(err))
		}

		if resp.StatusCode == http.StatusOK {
			defer resp.Body.Close()
			if out == nil {
				return nil
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("decode %s: %w", path, err)
			}
			return nil
		}

		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return ErrRateLimited
		}
		if attempt == 0 {
			c.logger.Debug("autolab request failed, refreshing token",
				zap.String("path", path), zap.Int("status", resp.StatusCode))
			continue
		}
		c.logger.Error("autolab request failed after token refresh",
			zap.String("path", path), zap.Int("status", resp.StatusCode))
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	return nil
}

func (c *Client) UserCourses(ctx context.Context, email string) (*UserCourses, error) {
	var out UserCourses
	err := c.do(ctx, http.MethodGet, "/api/ubcseit/user_courses", url.Values{"email": {email}}, nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CourseUsers(ctx context.Context, courseName string) (*CourseUsers, error) {
	var out CourseUsers
	err := c.do(ctx, http.MethodGet, "/api/ubcseit/course_users", url.Values{"course_name": {courseName}}, nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CourseAssessments(ctx context.Context, courseName string) (*CourseAssessments, error) {
	var out CourseAssessments
	err := c.do(ctx, http.MethodGet, "/api/ubcseit/course_assessments", url.Values{"course_name": {courseName}}, nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AssessmentSubmissions(ctx context.Context, courseName, assessmentName string) (*AssessmentSubmissions, error) {
	var out AssessmentSubmissions
	params := url.Values{"course_name": {courseName}, "assessment_name": {assessmentName}}
	if err := c.do(ctx, http.MethodGet, "/api/ubcseit/assessment_submissions", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CheckAdmin(ctx context.Context, email string) (bool, error) {
	var out struct {
		IsAdministrator bool `json:"is_administrator"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/ubcseit/admin_check", url.Values{"email": {email}}, nil, &out); err != nil {
		return false, err
	}
	return out.IsAdministrator, nil
}

func (c *Client) CourseSections(ctx context.Context, courseName string) (*CourseSections, error) {
	var out CourseSections
	err := c.do(ctx, http.MethodGet, "/api/ubcseit/course_sections/", url.Values{"course_name": {courseName}}, nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpsertCourseSections(ctx context.Context, courseName string, sections []Section) error {
	body := map[string]any{"sections": sections}
	return c.do(ctx, http.MethodPost, "/api/ubcseit/course_sections/", url.Values{"course_name": {courseName}}, body, nil)
}

func (c *Client) CreateCourse(ctx context.Context, course NewCourse) error {
	params := url.Values{
		"name":             {course.Name},
		"display_name":     {course.DisplayName},
		"semester":         {course.Semester},
		"instructor_email": {course.InstructorEmail},
		"start_date":       {course.StartDate},
		"end_date":         {course.EndDate},
	}
	c.logger.Info("creating autolab course", zap.String("course", course.Name))
	return c.do(ctx, http.MethodPost, "/api/v1/courses", params, nil, nil)
}

// SemesterDates maps a semester code such as "f23" to its default start and
// end dates. The century is taken from now.
func SemesterDates(code string, now time.Time) (start, end string, err error) {
	windows := map[byte][2]string{
		's': {"01-20", "05-20"},
		'u': {"05-20", "08-20"},
		'f': {"08-20", "12-20"},
		'w': {"01-01", "02-01"},
	}
	if len(code) != 3 {
		return "", "", fmt.Errorf("invalid semester code %q", code)
	}
	w, ok := windows[code[0]]
	if !ok {
		return "", "", fmt.Errorf("invalid semester code %q", code)
	}
	yy := code[1:]
	if yy[0] < '0' || yy[0] > '9' || yy[1] < '0' || yy[1] > '9' {
		return "", "", fmt.Errorf("invalid semester code %q", code)
	}
	year := fmt.Sprintf("%02d%s", now.Year()/100, yy)
	return year + "-" + w[0], year + "-" + w[1], nil
}

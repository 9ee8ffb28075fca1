package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/api/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func mark(budget string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Budget", budget)
		c.AbortWithStatus(http.StatusNoContent)
	}
}

// routeTable registers the API with guards that tag the response with the
// budget they represent and stop before any handler runs.
func routeTable() *gin.Engine {
	r := gin.New()
	h := &handler.Handler{
		Auth:     &handler.AuthHandler{},
		User:     &handler.UserHandler{},
		Course:   &handler.CourseHandler{},
		Roster:   &handler.RosterHandler{},
		Conflict: &handler.ConflictHandler{},
		Grading:  &handler.GradingHandler{},
		Export:   &handler.ExportHandler{},
		Section:  &handler.SectionHandler{},
		UserAPI:  &handler.UserAPIHandler{},
	}
	pass := func(c *gin.Context) {
		c.Set("role", "admin")
		c.Next()
	}
	registerAPI(r.Group("/api/v1"), h, guards{jwt: pass, userAPIKey: pass, read: mark("read"), write: mark("write")})
	return r
}

func budgetOf(r *gin.Engine, method, path string) string {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		return ""
	}
	return w.Header().Get("X-Budget")
}

func concretePath(pattern string) string {
	parts := strings.Split(pattern, "/")
	for i, p := range parts {
		if strings.HasPrefix(p, ":") {
			parts[i] = "x"
		}
	}
	return strings.Join(parts, "/")
}

func TestRegisterAPI_MutatingRoutesUseWriteBudget(t *testing.T) {
	r := routeTable()

	// Session routes sit outside the write budget; logout has none.
	exempt := map[string]string{
		"POST /api/v1/auth/login":     "read",
		"POST /api/v1/auth/dev-login": "read",
	}

	checked := 0
	for _, route := range r.Routes() {
		key := route.Method + " " + route.Path
		if route.Method == http.MethodGet || key == "POST /api/v1/auth/logout" {
			continue
		}
		want, ok := exempt[key]
		if !ok {
			want = "write"
		}
		if got := budgetOf(r, route.Method, concretePath(route.Path)); got != want {
			t.Errorf("%s: budget = %q, want %q", key, got, want)
		}
		checked++
	}
	if checked < 14 {
		t.Errorf("only %d mutating routes registered", checked)
	}
}

func TestRegisterAPI_ReadsUseReadBudget(t *testing.T) {
	r := routeTable()

	for _, path := range []string{
		"/api/v1/gat/courses/cse116/roster",
		"/api/v1/gat/assignments/a1/mine",
		"/api/v1/admin/users",
		"/api/v1/user-api/tango-histogram",
	} {
		if got := budgetOf(r, http.MethodGet, path); got != "read" {
			t.Errorf("GET %s: budget = %q, want read", path, got)
		}
	}
}

package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UB-CSE-IT/Autolab-Self-Service/config"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/service"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/response"
)

// AuthHandler session endpoints.
type AuthHandler struct {
	authSvc service.AuthService
	cookie  config.CookieConfig
	ttl     time.Duration
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc service.AuthService, cookie config.CookieConfig, ttl time.Duration) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cookie: cookie, ttl: ttl}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	switch strings.ToLower(h.cookie.SameSite) {
	case "strict":
		c.SetSameSite(http.SameSiteStrictMode)
	case "none":
		c.SetSameSite(http.SameSiteNoneMode)
	default:
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(h.cookie.Name, token, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}

// Login trusts the headers of the SSO proxy.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var headers dto.SSOHeaders
	if err := c.ShouldBindHeader(&headers); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &headers)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookie(c, result.AccessToken, result.ExpiresIn)
	response.OK(c, result)
}

// DevLogin logs in as any username in developer mode.
// POST /api/v1/auth/dev-login
func (h *AuthHandler) DevLogin(c *gin.Context) {
	var req dto.DevLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.authSvc.DevLogin(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookie(c, result.AccessToken, result.ExpiresIn)
	response.OK(c, result)
}

// Logout revokes the current token and clears the cookie.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti := c.GetString("token_jti")
	exp := c.GetTime("token_exp")

	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookie(c, "", -1)
	response.OK(c, nil)
}

// Me returns the caller's account.
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	me, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, me)
}

// ToggleAdmin drops or claims the administrator flag. The session cookie is
// reissued and the previous token revoked so the new flag takes effect
// immediately.
// POST /api/v1/auth/admin-toggle
func (h *AuthHandler) ToggleAdmin(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.authSvc.ToggleAdmin(c.Request.Context(), userID, c.GetString("token_jti"), c.GetTime("token_exp"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookie(c, result.AccessToken, int(h.ttl.Seconds()))
	response.OK(c, result)
}

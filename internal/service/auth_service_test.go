package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/UB-CSE-IT/Autolab-Self-Service/config"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/jwt"
)

// ── Test helpers ──

type fakeBlacklist struct {
	tokens map[string]time.Duration
}

func (b *fakeBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	b.tokens[jti] = ttl
	return nil
}

func (b *fakeBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := b.tokens[jti]
	return ok, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL: time.Hour,
			EmailDomain:    "buffalo.edu",
		},
	}
}

func setupTestAuthService(cfg *config.Config) (*authService, *memStore, *fakePlatform, *fakeBlacklist, *jwt.Manager) {
	store := newMemStore()
	platform := newFakePlatform()
	blacklist := &fakeBlacklist{tokens: make(map[string]time.Duration)}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := NewAuthService(cfg, store.repository(), platform, jwtMgr, blacklist, zap.NewNop()).(*authService)
	svc.now = func() time.Time { return baseTime }
	return svc, store, platform, blacklist, jwtMgr
}

var ssoJane = &dto.SSOHeaders{Username: "JDoe", PersonNumber: "50001234", FirstName: "Jane", LastName: "Doe"}

// ── Login ──

func TestLogin_CreatesThenUpdatesUser(t *testing.T) {
	svc, store, _, _, jwtMgr := setupTestAuthService(testConfig())
	ctx := context.Background()

	resp, err := svc.Login(ctx, ssoJane)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.User.Username != "jdoe" || resp.User.Email != "jdoe@buffalo.edu" || resp.User.LoginCount != 1 {
		t.Errorf("user = %+v", resp.User)
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", resp.ExpiresIn)
	}
	claims, err := jwtMgr.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != resp.User.ID || claims.Email != "jdoe@buffalo.edu" || claims.IsAdmin {
		t.Errorf("claims = %+v", claims)
	}

	renamed := *ssoJane
	renamed.LastName = "Smith"
	resp, err = svc.Login(ctx, &renamed)
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if resp.User.LoginCount != 2 || resp.User.LastName != "Smith" {
		t.Errorf("user after second login = %+v", resp.User)
	}
	if n := len(store.t.users); n != 1 {
		t.Errorf("users = %d, want 1", n)
	}
}

func TestDevLogin(t *testing.T) {
	cfg := testConfig()
	svc, _, _, _, _ := setupTestAuthService(cfg)
	req := &dto.DevLoginRequest{Username: "dev", FirstName: "Dev"}

	if _, err := svc.DevLogin(context.Background(), req); !errors.Is(err, ErrDevModeDisabled) {
		t.Errorf("err = %v, want ErrDevModeDisabled", err)
	}

	cfg.Feature.DeveloperMode = true
	resp, err := svc.DevLogin(context.Background(), req)
	if err != nil {
		t.Fatalf("DevLogin: %v", err)
	}
	if resp.User.Email != "dev@buffalo.edu" {
		t.Errorf("email = %s", resp.User.Email)
	}
}

func TestLogout_BlacklistsUntilExpiry(t *testing.T) {
	svc, _, _, blacklist, _ := setupTestAuthService(testConfig())

	if err := svc.Logout(context.Background(), "jti-1", baseTime.Add(30*time.Minute)); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if blacklist.tokens["jti-1"] != 30*time.Minute {
		t.Errorf("ttl = %v, want 30m", blacklist.tokens["jti-1"])
	}

	svc.blacklist = nil
	if err := svc.Logout(context.Background(), "jti-2", baseTime.Add(time.Minute)); err != nil {
		t.Errorf("Logout without a blacklist should succeed: %v", err)
	}
}

func TestMe(t *testing.T) {
	svc, _, _, _, _ := setupTestAuthService(testConfig())
	login, _ := svc.Login(context.Background(), ssoJane)

	me, err := svc.Me(context.Background(), login.User.ID)
	if err != nil || me.User.Username != "jdoe" {
		t.Fatalf("Me = %+v, %v", me, err)
	}
	if _, err := svc.Me(context.Background(), "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

// ── Admin toggle ──

func TestToggleAdmin(t *testing.T) {
	svc, _, platform, blacklist, jwtMgr := setupTestAuthService(testConfig())
	ctx := context.Background()
	login, _ := svc.Login(ctx, ssoJane)
	exp := baseTime.Add(time.Hour)

	if _, err := svc.ToggleAdmin(ctx, login.User.ID, "jti-0", exp); !errors.Is(err, ErrNotPlatformAdmin) {
		t.Fatalf("err = %v, want ErrNotPlatformAdmin", err)
	}
	if _, ok := blacklist.tokens["jti-0"]; ok {
		t.Error("a refused toggle must not revoke the session")
	}

	platform.admins["jdoe@buffalo.edu"] = true
	resp, err := svc.ToggleAdmin(ctx, login.User.ID, "jti-1", exp)
	if err != nil || !resp.IsAdmin {
		t.Fatalf("ToggleAdmin = %+v, %v", resp, err)
	}
	claims, err := jwtMgr.ParseToken(resp.AccessToken)
	if err != nil || !claims.IsAdmin {
		t.Errorf("reissued token should carry admin: %+v, %v", claims, err)
	}

	// Leaving admin mode never asks the platform.
	platform.err = errors.New("platform down")
	resp, err = svc.ToggleAdmin(ctx, login.User.ID, "jti-2", exp)
	if err != nil || resp.IsAdmin {
		t.Errorf("ToggleAdmin off = %+v, %v", resp, err)
	}

	// Tokens carrying the previous flag are revoked until they expire.
	for _, jti := range []string{"jti-1", "jti-2"} {
		if blacklist.tokens[jti] != time.Hour {
			t.Errorf("%s ttl = %v, want 1h", jti, blacklist.tokens[jti])
		}
	}
}

// ── User API key ──

func TestVerifyUserAPIKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-key"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.Auth.UserAPIKeyHash = string(hash)
	svc, _, _, _, _ := setupTestAuthService(cfg)

	if err := svc.VerifyUserAPIKey("s3cret-key"); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
	if err := svc.VerifyUserAPIKey("wrong"); !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("err = %v, want ErrInvalidAPIKey", err)
	}

	cfg.Auth.UserAPIKeyHash = ""
	if err := svc.VerifyUserAPIKey("s3cret-key"); !errors.Is(err, ErrInvalidAPIKey) {
		t.Error("an unconfigured key must reject everything")
	}
}

package webserver

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/textmint/textmint/internal/domain"
	"github.com/textmint/textmint/pkg/common"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

func newAuthEnv(t *testing.T) (*echo.Echo, *gorm.DB, *domain.User) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Plan{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	user := &domain.User{
		ID:                  common.UUIDint64(),
		Email:               "u@example.com",
		Role:                domain.RoleUser,
		PersonalAccessToken: common.RandomHex(16),
		AccountExpiresAt:    time.Now().Add(time.Hour),
		IsActive:            true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	e := echo.New()
	protected := e.Group("/api", AuthMiddleware(testSecret, db))
	protected.GET("/whoami", func(c echo.Context) error {
		return Ok(c, CurrentIdentity(c))
	})
	admin := protected.Group("/admin", RequireRole(domain.RoleAdmin))
	admin.GET("/ping", func(c echo.Context) error {
		return Ok(c, "pong")
	})
	return e, db, user
}

func doGet(e *echo.Echo, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSignedTokenAccepted(t *testing.T) {
	e, _, user := newAuthEnv(t)

	token, err := IssueToken(testSecret, user, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec := doGet(e, "/api/whoami", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestPersonalAccessTokenAccepted(t *testing.T) {
	e, _, user := newAuthEnv(t)

	rec := doGet(e, "/api/whoami", user.PersonalAccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestInactiveUserTokenRejected(t *testing.T) {
	e, db, user := newAuthEnv(t)
	db.Model(user).Update("is_active", false)

	rec := doGet(e, "/api/whoami", user.PersonalAccessToken)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", rec.Code)
	}
}

func TestMalformedTokenRejected(t *testing.T) {
	e, _, _ := newAuthEnv(t)

	for _, bearer := range []string{"", "garbage", "a.b.c"} {
		rec := doGet(e, "/api/whoami", bearer)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("bearer %q: code = %d, want 401", bearer, rec.Code)
		}
	}
}

func TestWrongSecretRejected(t *testing.T) {
	e, _, user := newAuthEnv(t)

	token, err := IssueToken("other-secret", user, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec := doGet(e, "/api/whoami", token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", rec.Code)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	e, _, user := newAuthEnv(t)

	token, err := IssueToken(testSecret, user, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec := doGet(e, "/api/whoami", token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", rec.Code)
	}
}

func TestRoleGateIsForbiddenNotUnauthorized(t *testing.T) {
	e, _, user := newAuthEnv(t)

	token, err := IssueToken(testSecret, user, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec := doGet(e, "/api/admin/ping", token)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("code = %d, want 403 for valid non-admin token", rec.Code)
	}

	admin := &domain.User{ID: user.ID, Email: user.Email, Role: domain.RoleAdmin}
	adminToken, err := IssueToken(testSecret, admin, time.Hour)
	if err != nil {
		t.Fatalf("issue admin: %v", err)
	}
	rec = doGet(e, "/api/admin/ping", adminToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin code = %d, body %s", rec.Code, rec.Body.String())
	}
}

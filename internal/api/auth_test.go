package api

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/textmint/textmint/config"
	"github.com/textmint/textmint/internal/domain"
	"github.com/textmint/textmint/internal/webserver"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newAPIEnv(t *testing.T) (*echo.Echo, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(domain.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := *config.DefaultAppConfig
	cfg.Web.JwtSecret = "api-test-secret"

	ws := webserver.NewWebServer(&cfg)
	srv := NewServer(&cfg, db, nil, nil, nil)
	srv.RegisterRoutes(ws.Echo())
	return ws.Echo(), db
}

func doJSON(e *echo.Echo, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := jsoniter.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	e, db := newAPIEnv(t)

	rec := doJSON(e, http.MethodPost, "/api/auth/register",
		`{"name":"Alice","email":"Alice@Example.com","password":"hunter22"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register code = %d, body %s", rec.Code, rec.Body.String())
	}

	// email is stored lowercased and the user lands on the free plan
	var user domain.User
	if err := db.Where("email = ?", "alice@example.com").First(&user).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.PlanId == nil {
		t.Error("user has no plan assigned")
	}
	if user.PersonalAccessToken == "" {
		t.Error("no personal access token issued")
	}
	if user.Password == "hunter22" {
		t.Error("password stored in clear")
	}

	rec = doJSON(e, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"hunter22"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login code = %d, body %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	data, _ := env["data"].(map[string]interface{})
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatalf("no token in login response: %s", rec.Body.String())
	}

	// the issued token opens protected routes
	rec = doJSON(e, http.MethodGet, "/api/user/profile", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile code = %d, body %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), user.PersonalAccessToken) {
		t.Error("profile leaks the personal access token")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e, _ := newAPIEnv(t)

	body := `{"email":"dup@example.com","password":"hunter22"}`
	if rec := doJSON(e, http.MethodPost, "/api/auth/register", body, ""); rec.Code != http.StatusCreated {
		t.Fatalf("first register code = %d", rec.Code)
	}
	rec := doJSON(e, http.MethodPost, "/api/auth/register", body, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("second register code = %d, want 409", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env["code"] != "EMAIL_EXISTS" {
		t.Errorf("error code = %v", env["code"])
	}
}

func TestRegisterValidation(t *testing.T) {
	e, _ := newAPIEnv(t)

	cases := []string{
		`{"password":"hunter22"}`,
		`{"email":"not-an-email","password":"hunter22"}`,
		`{"email":"a@b.com","password":"short"}`,
	}
	for _, body := range cases {
		rec := doJSON(e, http.MethodPost, "/api/auth/register", body, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: code = %d, want 400", body, rec.Code)
		}
	}
}

func TestLoginUniformCredentialError(t *testing.T) {
	e, _ := newAPIEnv(t)

	if rec := doJSON(e, http.MethodPost, "/api/auth/register",
		`{"email":"bob@example.com","password":"hunter22"}`, ""); rec.Code != http.StatusCreated {
		t.Fatalf("register code = %d", rec.Code)
	}

	wrongPass := doJSON(e, http.MethodPost, "/api/auth/login",
		`{"email":"bob@example.com","password":"wrong-pw"}`, "")
	unknownUser := doJSON(e, http.MethodPost, "/api/auth/login",
		`{"email":"nobody@example.com","password":"hunter22"}`, "")

	for _, rec := range []*httptest.ResponseRecorder{wrongPass, unknownUser} {
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("code = %d, want 401", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env["code"] != "INVALID_CREDENTIALS" {
			t.Errorf("error code = %v, want INVALID_CREDENTIALS", env["code"])
		}
	}
	// same body for both failure modes, no account probing
	if wrongPass.Body.String() != unknownUser.Body.String() {
		t.Error("wrong password and unknown email produce different responses")
	}
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	e, _ := newAPIEnv(t)

	rec := doJSON(e, http.MethodGet, "/api/user/profile", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", rec.Code)
	}
}

package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/textmint/textmint/internal/domain"
	"github.com/textmint/textmint/internal/webserver"
	"github.com/textmint/textmint/pkg/common"
	"gorm.io/gorm"
)

func seedAdmin(t *testing.T, db *gorm.DB) *domain.User {
	t.Helper()
	admin := &domain.User{
		ID:               common.UUIDint64(),
		Email:            "admin@example.com",
		Role:             domain.RoleAdmin,
		AccountExpiresAt: time.Now().Add(time.Hour),
		IsActive:         true,
	}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return admin
}

func adminToken(t *testing.T, e *echo.Echo, user *domain.User) string {
	t.Helper()
	token, err := webserver.IssueToken("api-test-secret", user, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestPlanUpdateAllowList(t *testing.T) {
	e, db := newAPIEnv(t)
	admin := seedAdmin(t, db)
	token := adminToken(t, e, admin)

	plan := domain.Plan{ID: common.UUIDint64(), Name: "starter", Price: 100, MaxSessions: 2}
	if err := db.Create(&plan).Error; err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	// unknown fields (id, creator) are dropped by the typed bind, absent
	// fields stay untouched
	rec := doJSON(e, http.MethodPut, fmt.Sprintf("/api/plans/%d", plan.ID),
		`{"price":200,"id":"999","creator":"evil"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}

	var got domain.Plan
	if err := db.First(&got, plan.ID).Error; err != nil {
		t.Fatalf("reload plan: %v", err)
	}
	if got.Price != 200 {
		t.Errorf("price = %d, want 200", got.Price)
	}
	if got.Name != "starter" || got.MaxSessions != 2 {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestPlanUpdateRejectsEmptyAndBadQuota(t *testing.T) {
	e, db := newAPIEnv(t)
	admin := seedAdmin(t, db)
	token := adminToken(t, e, admin)

	plan := domain.Plan{ID: common.UUIDint64(), Name: "starter", Price: 100, MaxSessions: 2}
	if err := db.Create(&plan).Error; err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	rec := doJSON(e, http.MethodPut, fmt.Sprintf("/api/plans/%d", plan.ID), `{}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty update code = %d, want 400", rec.Code)
	}

	rec = doJSON(e, http.MethodPut, fmt.Sprintf("/api/plans/%d", plan.ID),
		`{"max_sessions":0}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero quota code = %d, want 400", rec.Code)
	}
}

func TestPlanAdminRoutesNeedAdminRole(t *testing.T) {
	e, db := newAPIEnv(t)

	user := &domain.User{
		ID:               common.UUIDint64(),
		Email:            "plain@example.com",
		Role:             domain.RoleUser,
		AccountExpiresAt: time.Now().Add(time.Hour),
		IsActive:         true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token := adminToken(t, e, user)

	rec := doJSON(e, http.MethodPost, "/api/plans",
		`{"name":"sneaky","max_sessions":99}`, token)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("code = %d, want 403 for non-admin", rec.Code)
	}
}

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/textmint/textmint/internal/domain"
	"github.com/textmint/textmint/internal/webserver"
	"github.com/textmint/textmint/pkg/common"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const registrationValidity = 30 * 24 * time.Hour

type registerPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// postRegister creates a user on the free plan with a fresh personal access
// token. The free plan is lazily created on first registration.
func (s *Server) postRegister(c echo.Context) error {
	var payload registerPayload
	if err := c.Bind(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "MISSING_FIELDS", "Email and password are required", nil)
	}
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))

	db := s.db.WithContext(c.Request().Context())

	var count int64
	if err := db.Model(&domain.User{}).Where("email = ?", payload.Email).Count(&count).Error; err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", nil)
	}
	if count > 0 {
		return webserver.Fail(c, http.StatusConflict, "EMAIL_EXISTS", "User with this email already exists", nil)
	}

	freePlan, err := s.ensureFreePlan(db)
	if err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to resolve default plan", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}

	user := &domain.User{
		ID:                  common.UUIDint64(),
		Email:               payload.Email,
		Name:                payload.Name,
		Password:            string(hash),
		PlanId:              &freePlan.ID,
		Role:                domain.RoleUser,
		PersonalAccessToken: common.RandomHex(16),
		AccountExpiresAt:    time.Now().Add(registrationValidity),
		IsActive:            true,
	}
	if err := db.Create(user).Error; err != nil {
		zap.L().Error("register: user create failed", zap.Error(err))
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user", nil)
	}
	return webserver.Created(c, map[string]interface{}{"id": user.ID, "email": user.Email})
}

// postLogin verifies credentials and issues a signed session token. Unknown
// email and wrong password produce the same error.
func (s *Server) postLogin(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "MISSING_FIELDS", "Email and password are required", nil)
	}
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))

	db := s.db.WithContext(c.Request().Context())

	var user domain.User
	err := db.Where("email = ?", payload.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return webserver.Fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials", nil)
	} else if err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query user", nil)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)) != nil {
		return webserver.Fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials", nil)
	}

	token, err := webserver.IssueToken(s.cfg.Web.JwtSecret, &user,
		time.Duration(s.cfg.Web.JwtExpireHours)*time.Hour)
	if err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}

	var plan *domain.Plan
	if user.PlanId != nil {
		var p domain.Plan
		if err := db.First(&p, *user.PlanId).Error; err == nil {
			plan = &p
		}
	}

	return webserver.Ok(c, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":                    user.ID,
			"email":                 user.Email,
			"role":                  user.Role,
			"personal_access_token": user.PersonalAccessToken,
			"plan":                  plan,
		},
	})
}

// getProfile returns the caller's user row with the plan preloaded and
// credentials blanked.
func (s *Server) getProfile(c echo.Context) error {
	ident := webserver.CurrentIdentity(c)
	db := s.db.WithContext(c.Request().Context())

	var user domain.User
	if err := db.Preload("Plan").First(&user, ident.UserID).Error; err != nil {
		return webserver.Fail(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
	}
	user.PersonalAccessToken = ""
	return webserver.Ok(c, user)
}

func (s *Server) ensureFreePlan(db *gorm.DB) (*domain.Plan, error) {
	var plan domain.Plan
	err := db.Where("name = ?", domain.FreePlanName).First(&plan).Error
	if err == nil {
		return &plan, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	plan = domain.Plan{
		ID:          common.UUIDint64(),
		Name:        domain.FreePlanName,
		Price:       0,
		MaxSessions: 1,
		Description: "A free plan for new users.",
	}
	if err := db.Create(&plan).Error; err != nil {
		return nil, err
	}
	zap.L().Info("initialized default free plan", zap.Int64("plan_id", plan.ID))
	return &plan, nil
}

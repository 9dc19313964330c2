package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/textmint/textmint/internal/domain"
	"github.com/textmint/textmint/internal/webserver"
	"github.com/textmint/textmint/pkg/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type planPayload struct {
	Name        string `json:"name" validate:"required,min=1,max=64"`
	Price       int    `json:"price"`
	MaxSessions int    `json:"max_sessions" validate:"required,min=1"`
	Description string `json:"description"`
}

// planUpdatePayload is the explicit allow-list for plan updates. Absent
// fields stay untouched; unknown caller-supplied fields are dropped by the
// typed bind.
type planUpdatePayload struct {
	Name        *string `json:"name"`
	Price       *int    `json:"price"`
	MaxSessions *int    `json:"max_sessions"`
	Description *string `json:"description"`
}

func (s *Server) listPlans(c echo.Context) error {
	var plans []domain.Plan
	if err := s.db.WithContext(c.Request().Context()).Order("price ASC").Find(&plans).Error; err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query plans", nil)
	}
	return webserver.Ok(c, plans)
}

func (s *Server) getPlan(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid plan ID", nil)
	}
	var plan domain.Plan
	if err := s.db.WithContext(c.Request().Context()).First(&plan, id).Error; err != nil {
		return webserver.Fail(c, http.StatusNotFound, "PLAN_NOT_FOUND", "Plan not found", nil)
	}
	return webserver.Ok(c, plan)
}

func (s *Server) createPlan(c echo.Context) error {
	var payload planPayload
	if err := c.Bind(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse plan", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "MISSING_FIELDS", "name and max_sessions are required", nil)
	}
	plan := &domain.Plan{
		ID:          common.UUIDint64(),
		Name:        strings.TrimSpace(payload.Name),
		Price:       payload.Price,
		MaxSessions: payload.MaxSessions,
		Description: payload.Description,
	}
	if err := s.db.WithContext(c.Request().Context()).Create(plan).Error; err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create plan", nil)
	}
	return webserver.Created(c, plan)
}

func (s *Server) updatePlan(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid plan ID", nil)
	}
	var payload planUpdatePayload
	if err := c.Bind(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse plan", nil)
	}

	updates := map[string]interface{}{}
	if payload.Name != nil {
		updates["name"] = strings.TrimSpace(*payload.Name)
	}
	if payload.Price != nil {
		updates["price"] = *payload.Price
	}
	if payload.MaxSessions != nil {
		if *payload.MaxSessions < 1 {
			return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "max_sessions must be positive", nil)
		}
		updates["max_sessions"] = *payload.MaxSessions
	}
	if payload.Description != nil {
		updates["description"] = *payload.Description
	}
	if len(updates) == 0 {
		return webserver.Fail(c, http.StatusBadRequest, "EMPTY_UPDATE", "No updatable fields supplied", nil)
	}

	res := s.db.WithContext(c.Request().Context()).
		Model(&domain.Plan{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update plan", nil)
	}
	if res.RowsAffected == 0 {
		return webserver.Fail(c, http.StatusNotFound, "PLAN_NOT_FOUND", "Plan not found", nil)
	}
	return webserver.Ok(c, map[string]interface{}{"updated": true})
}

func (s *Server) deletePlan(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid plan ID", nil)
	}
	db := s.db.WithContext(c.Request().Context())

	// Users referencing the plan fall back to no plan.
	if err := db.Model(&domain.User{}).Where("plan_id = ?", id).
		Update("plan_id", nil).Error; err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to detach plan users", nil)
	}
	res := db.Where("id = ?", id).Delete(&domain.Plan{})
	if res.Error != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete plan", nil)
	}
	if res.RowsAffected == 0 {
		return webserver.Fail(c, http.StatusNotFound, "PLAN_NOT_FOUND", "Plan not found", nil)
	}
	return webserver.Ok(c, map[string]interface{}{"deleted": true})
}

type subscribePayload struct {
	Months        int    `json:"months" validate:"required,min=1,max=36"`
	TransactionId string `json:"transaction_id" validate:"required"`
}

// subscribePlan records a payment, moves the caller onto the plan and
// extends the account expiry by the paid months.
func (s *Server) subscribePlan(c echo.Context) error {
	ident := webserver.CurrentIdentity(c)
	planID, err := parseIDParam(c, "id")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid plan ID", nil)
	}
	var payload subscribePayload
	if err := c.Bind(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "MISSING_FIELDS", "months and transaction_id are required", nil)
	}

	db := s.db.WithContext(c.Request().Context())

	var plan domain.Plan
	if err := db.First(&plan, planID).Error; err != nil {
		return webserver.Fail(c, http.StatusNotFound, "PLAN_NOT_FOUND", "Plan not found", nil)
	}
	var user domain.User
	if err := db.First(&user, ident.UserID).Error; err != nil {
		return webserver.Fail(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
	}

	// Expiry extends from the later of now and the current expiry.
	base := time.Now()
	if user.AccountExpiresAt.After(base) {
		base = user.AccountExpiresAt
	}
	expires := base.Add(time.Duration(payload.Months) * 30 * 24 * time.Hour)

	payment := &domain.Payment{
		ID:            common.UUIDint64(),
		UserId:        user.ID,
		PlanId:        plan.ID,
		Amount:        plan.Price * payload.Months,
		MonthsPaid:    payload.Months,
		TransactionId: payload.TransactionId,
		PaidAt:        time.Now(),
		ExpiresAt:     expires,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		return tx.Model(&domain.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"plan_id":            plan.ID,
			"account_expires_at": expires,
			"is_active":          true,
		}).Error
	})
	if err != nil {
		zap.L().Error("subscribe: payment transaction failed",
			zap.Int64("user_id", user.ID), zap.Int64("plan_id", plan.ID), zap.Error(err))
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return webserver.Fail(c, http.StatusConflict, "DUPLICATE_TRANSACTION", "Transaction already recorded", nil)
		}
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record payment", nil)
	}

	return webserver.Created(c, map[string]interface{}{
		"payment_id": payment.ID,
		"plan":       plan.Name,
		"expires_at": expires,
	})
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

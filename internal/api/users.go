package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/textmint/textmint/internal/domain"
	"github.com/textmint/textmint/internal/webserver"
	"gorm.io/gorm"
)

// userUpdatePayload is the explicit allow-list for admin user updates.
// Password and personal access token are never writable through this path.
type userUpdatePayload struct {
	Name             *string    `json:"name"`
	Role             *string    `json:"role"`
	PlanId           *int64     `json:"plan_id,string"`
	IsActive         *bool      `json:"is_active"`
	AccountExpiresAt *time.Time `json:"account_expires_at"`
}

func (s *Server) listUsers(c echo.Context) error {
	var users []domain.User
	err := s.db.WithContext(c.Request().Context()).
		Preload("Plan").Order("id DESC").Find(&users).Error
	if err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", nil)
	}
	for i := range users {
		users[i].PersonalAccessToken = ""
	}
	return webserver.Ok(c, users)
}

func (s *Server) getUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	var user domain.User
	err = s.db.WithContext(c.Request().Context()).Preload("Plan").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return webserver.Fail(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
	} else if err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query user", nil)
	}
	user.PersonalAccessToken = ""
	return webserver.Ok(c, user)
}

func (s *Server) updateUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	var payload userUpdatePayload
	if err := c.Bind(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", nil)
	}

	updates := map[string]interface{}{}
	if payload.Name != nil {
		updates["name"] = strings.TrimSpace(*payload.Name)
	}
	if payload.Role != nil {
		if !domain.ValidRole(*payload.Role) {
			return webserver.Fail(c, http.StatusBadRequest, "INVALID_ROLE", "Role must be admin or user", nil)
		}
		updates["role"] = *payload.Role
	}
	if payload.PlanId != nil {
		var count int64
		if err := s.db.Model(&domain.Plan{}).Where("id = ?", *payload.PlanId).Count(&count).Error; err != nil || count == 0 {
			return webserver.Fail(c, http.StatusBadRequest, "INVALID_PLAN", "Referenced plan does not exist", nil)
		}
		updates["plan_id"] = *payload.PlanId
	}
	if payload.IsActive != nil {
		updates["is_active"] = *payload.IsActive
	}
	if payload.AccountExpiresAt != nil {
		updates["account_expires_at"] = *payload.AccountExpiresAt
	}
	if len(updates) == 0 {
		return webserver.Fail(c, http.StatusBadRequest, "EMPTY_UPDATE", "No updatable fields supplied", nil)
	}

	res := s.db.WithContext(c.Request().Context()).
		Model(&domain.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user", nil)
	}
	if res.RowsAffected == 0 {
		return webserver.Fail(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
	}
	return webserver.Ok(c, map[string]interface{}{"updated": true})
}

func (s *Server) deleteUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	db := s.db.WithContext(c.Request().Context())

	// Owned rows go with the user (cascade semantics kept explicit for
	// databases migrated without FK enforcement).
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&domain.Session{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.MediaUpload{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Campaign{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Payment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return webserver.Fail(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
	} else if err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete user", nil)
	}
	return webserver.Ok(c, map[string]interface{}{"deleted": true})
}

package app

import (
	"errors"
	"time"

	"github.com/textmint/textmint/internal/domain"
	"github.com/textmint/textmint/pkg/common"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// checkDefaultPlan makes sure the free plan exists so registrations always
// have a plan to land on.
func (a *Application) checkDefaultPlan() {
	var plan domain.Plan
	err := a.gormDB.Where("name = ?", domain.FreePlanName).First(&plan).Error
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		zap.L().Error("failed to query default plan", zap.Error(err))
		return
	}
	if err := a.gormDB.Create(&domain.Plan{
		ID:          common.UUIDint64(),
		Name:        domain.FreePlanName,
		Price:       0,
		MaxSessions: 1,
		Description: "A free plan for new users.",
	}).Error; err != nil {
		zap.L().Error("failed to create default plan", zap.Error(err))
		return
	}
	zap.L().Info("initialized default free plan")
}

// checkAdmin provisions a default administrator account on a fresh database.
func (a *Application) checkAdmin() {
	const adminEmail = "admin@textmint.local"
	const defaultPassword = "textmint"

	var admin domain.User
	err := a.gormDB.Where("email = ?", adminEmail).First(&admin).Error
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		zap.L().Error("failed to query admin account", zap.Error(err))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("failed to hash default admin password", zap.Error(err))
		return
	}
	if err := a.gormDB.Create(&domain.User{
		ID:                  common.UUIDint64(),
		Email:               adminEmail,
		Name:                "administrator",
		Password:            string(hash),
		Role:                domain.RoleAdmin,
		PersonalAccessToken: common.RandomHex(16),
		AccountExpiresAt:    time.Now().Add(10 * 365 * 24 * time.Hour),
		IsActive:            true,
	}).Error; err != nil {
		zap.L().Error("failed to create default admin account", zap.Error(err))
		return
	}
	zap.L().Info("initialized default admin account", zap.String("email", adminEmail))
}

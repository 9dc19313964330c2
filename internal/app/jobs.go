package app

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/textmint/textmint/internal/domain"
	"go.uber.org/zap"
)

const messageLogRetentionDays = 90

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@hourly", func() {
		a.SchedDeactivateExpiredAccounts()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		a.SchedClearExpireData()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedDeactivateExpiredAccounts flips is_active on accounts whose expiry has
// passed so both token paths start rejecting them.
func (a *Application) SchedDeactivateExpiredAccounts() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	res := a.gormDB.Model(&domain.User{}).
		Where("is_active = ? AND account_expires_at < ?", true, time.Now()).
		Update("is_active", false)
	if res.Error != nil {
		zap.L().Error("expiry sweep failed", zap.Error(res.Error))
		return
	}
	if res.RowsAffected > 0 {
		zap.L().Info("deactivated expired accounts", zap.Int64("count", res.RowsAffected))
	}
}

// SchedClearExpireData prunes old message logs.
func (a *Application) SchedClearExpireData() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	cutoff := time.Now().Add(-time.Hour * 24 * messageLogRetentionDays)
	a.gormDB.Where("timestamp < ?", cutoff).Delete(&domain.MessageLog{})
}

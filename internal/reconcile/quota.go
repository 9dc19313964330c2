package reconcile

import (
	"context"

	"github.com/textmint/textmint/internal/domain"
	"gorm.io/gorm"
)

// DefaultMaxSessions applies when a user has no plan reference, matching the
// free plan quota.
const DefaultMaxSessions = 1

// PlanQuotaResolver resolves session quotas from the owner's plan row.
type PlanQuotaResolver struct {
	db *gorm.DB
}

func NewPlanQuotaResolver(db *gorm.DB) *PlanQuotaResolver {
	return &PlanQuotaResolver{db: db}
}

func (r *PlanQuotaResolver) MaxSessions(ctx context.Context, userID int64) (int, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return 0, err
	}
	if user.PlanId == nil {
		return DefaultMaxSessions, nil
	}
	var plan domain.Plan
	if err := r.db.WithContext(ctx).First(&plan, *user.PlanId).Error; err != nil {
		// Plan deleted from under the user (set-null may not have landed yet).
		return DefaultMaxSessions, nil
	}
	if plan.MaxSessions <= 0 {
		return DefaultMaxSessions, nil
	}
	return plan.MaxSessions, nil
}

package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is a registered tenant. PersonalAccessToken is a long-lived credential
// accepted by the API alongside short-lived signed tokens.
type User struct {
	ID                  int64      `json:"id,string" gorm:"primaryKey"`
	Email               string     `json:"email" gorm:"uniqueIndex;size:255"`
	Name                string     `json:"name"`
	Password            string     `json:"-"`
	PlanId              *int64     `json:"plan_id,string" gorm:"index"`
	Role                string     `json:"role" gorm:"size:16;default:user"`
	PersonalAccessToken string     `json:"personal_access_token" gorm:"uniqueIndex;size:64"`
	AccountExpiresAt    time.Time  `json:"account_expires_at"`
	IsActive            bool       `json:"is_active" gorm:"default:true"`
	Plan                *Plan      `json:"plan,omitempty" gorm:"foreignKey:PlanId;constraint:OnDelete:SET NULL"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// ValidRole reports whether r is inside the closed role enum.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleUser
}

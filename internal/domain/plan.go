package domain

import "time"

// Plan is a subscription tier. MaxSessions caps concurrent WhatsApp sessions
// for users on this plan.
type Plan struct {
	ID          int64     `json:"id,string" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;size:64"`
	Price       int       `json:"price"` // price per month in INR
	MaxSessions int       `json:"max_sessions"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}

// FreePlanName is the default plan lazily created on first registration.
const FreePlanName = "free"

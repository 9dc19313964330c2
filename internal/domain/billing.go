package domain

import "time"

// Payment records a plan purchase. TransactionId comes from the payment
// provider and must be unique.
type Payment struct {
	ID            int64     `json:"id,string" gorm:"primaryKey"`
	UserId        int64     `json:"user_id,string" gorm:"index;not null"`
	PlanId        int64     `json:"plan_id,string" gorm:"index;not null"`
	Amount        int       `json:"amount"` // INR
	MonthsPaid    int       `json:"months_paid"`
	TransactionId string    `json:"transaction_id" gorm:"uniqueIndex;size:64"`
	PaidAt        time.Time `json:"paid_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	User          *User     `json:"-" gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
}

func (Payment) TableName() string {
	return "payments"
}

// Campaign statuses.
const (
	CampaignDraft      = "draft"
	CampaignInProgress = "in_progress"
	CampaignCompleted  = "completed"
	CampaignFailed     = "failed"
)

// Campaign is a bulk messaging run owned by a user.
type Campaign struct {
	ID             int64     `json:"id,string" gorm:"primaryKey"`
	UserId         int64     `json:"user_id,string" gorm:"index;not null"`
	Name           string    `json:"name"`
	Status         string    `json:"status" gorm:"size:16;default:draft"`
	MessageContent string    `json:"message_content" gorm:"type:text"`
	User           *User     `json:"-" gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

// Message log statuses.
const (
	MessageSent   = "sent"
	MessageFailed = "failed"
)

// MessageLog records one outbound message attempt through a session.
// CampaignId is nil for ad-hoc sends.
type MessageLog struct {
	ID             int64     `json:"id,string" gorm:"primaryKey"`
	CampaignId     *int64    `json:"campaign_id,string" gorm:"index"`
	SessionId      int64     `json:"session_id,string" gorm:"index;not null"`
	Recipient      string    `json:"recipient" gorm:"size:32"`
	MessageContent string    `json:"message_content" gorm:"type:text"`
	Status         string    `json:"status" gorm:"size:16;default:sent"`
	Timestamp      time.Time `json:"timestamp"`
	Session        *Session  `json:"-" gorm:"foreignKey:SessionId;constraint:OnDelete:CASCADE"`
}

func (MessageLog) TableName() string {
	return "message_logs"
}

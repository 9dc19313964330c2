package domain

import "time"

// Session status values. Local state is a mirror of the remote gateway's view;
// the four-state enum below is canonical.
const (
	SessionDisconnected = "disconnected"
	SessionConnecting   = "connecting"
	SessionConnected    = "connected"
	SessionExpired      = "expired"
)

// Session mirrors a WhatsApp session managed by the remote gateway. RemoteId
// is the gateway's identifier; RemoteApiKey and WebhookSecret are credentials
// scoped to that remote session.
type Session struct {
	ID            int64      `json:"id,string" gorm:"primaryKey"`
	UserId        int64      `json:"user_id,string" gorm:"index;not null"`
	PhoneNumber   string     `json:"phone_number" gorm:"size:32"`
	Name          string     `json:"name"`
	Status        string     `json:"status" gorm:"size:16;default:disconnected"`
	RemoteId      string     `json:"remote_id" gorm:"index"`
	RemoteApiKey  string     `json:"-" gorm:"size:128"`
	WebhookSecret string     `json:"-" gorm:"size:128"`
	QRCode        string     `json:"qr_code,omitempty" gorm:"type:text"`
	LastActiveAt  *time.Time `json:"last_active_at"`
	User          *User      `json:"-" gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Session) TableName() string {
	return "whatsapp_sessions"
}

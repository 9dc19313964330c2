package wasender

import "fmt"

// SessionData is the gateway's representation of a WhatsApp session as
// returned by the create call.
type SessionData struct {
	ID                   int64    `json:"id"`
	Name                 string   `json:"name"`
	PhoneNumber          string   `json:"phone_number"`
	Status               string   `json:"status"`
	AccountProtection    bool     `json:"account_protection"`
	LogMessages          bool     `json:"log_messages"`
	ReadIncomingMessages bool     `json:"read_incoming_messages"`
	WebhookURL           string   `json:"webhook_url,omitempty"`
	WebhookEnabled       bool     `json:"webhook_enabled"`
	WebhookEvents        []string `json:"webhook_events"`
	ApiKey               string   `json:"api_key"`
	WebhookSecret        string   `json:"webhook_secret"`
}

type sessionEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    SessionData `json:"data"`
}

// ConnectData carries the connect acknowledgment. QRCode is present only when
// the gateway wants the user to scan a fresh code.
type ConnectData struct {
	Status string `json:"status"`
	QRCode string `json:"qrCode,omitempty"`
}

type connectEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    ConnectData `json:"data"`
}

type qrEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		QRCode string `json:"qrCode"`
	} `json:"data"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// CreateSessionRequest is the create call payload. Protection and webhook
// flags are fixed by policy at the call site.
type CreateSessionRequest struct {
	Name                 string   `json:"name"`
	PhoneNumber          string   `json:"phone_number"`
	AccountProtection    bool     `json:"account_protection"`
	LogMessages          bool     `json:"log_messages"`
	ReadIncomingMessages bool     `json:"read_incoming_messages"`
	WebhookEnabled       bool     `json:"webhook_enabled"`
	WebhookEvents        []string `json:"webhook_events"`
	AutoRejectCalls      bool     `json:"auto_reject_calls"`
}

// SendMessageRequest is the ad-hoc message payload, authenticated with the
// session's own api key.
type SendMessageRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// APIError is a non-success gateway response. Body holds the raw response
// text and is passed through to callers unmodified; no retry is attempted.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wasender: status %d: %s", e.StatusCode, e.Body)
}

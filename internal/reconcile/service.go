package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/textmint/textmint/internal/domain"
	"github.com/textmint/textmint/internal/wasender"
	"github.com/textmint/textmint/pkg/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a session id does not exist for the caller.
// A session owned by another user maps to the same error so callers cannot
// probe for existence.
var ErrNotFound = errors.New("session not found")

// ErrQuotaExceeded is returned when a create would exceed the owner's plan
// session quota.
var ErrQuotaExceeded = errors.New("session quota exceeded")

// Gateway is the remote session API surface the reconciler depends on.
// *wasender.Client satisfies it.
type Gateway interface {
	CreateSession(ctx context.Context, req wasender.CreateSessionRequest) (*wasender.SessionData, error)
	Connect(ctx context.Context, remoteID string) (*wasender.ConnectData, error)
	QRCode(ctx context.Context, remoteID string) (string, error)
	Status(ctx context.Context, sessionApiKey string) (string, error)
	Disconnect(ctx context.Context, remoteID string) error
	Delete(ctx context.Context, remoteID string) error
}

// QuotaResolver returns the max concurrent sessions allowed for a user.
type QuotaResolver interface {
	MaxSessions(ctx context.Context, userID int64) (int, error)
}

// Service keeps local session rows consistent with the remote gateway's view.
// The gateway is the sole arbiter of session state; local rows record the
// last response seen (last-writer-wins, no local locking).
type Service struct {
	repo    SessionRepository
	gateway Gateway
	quota   QuotaResolver
}

func NewService(repo SessionRepository, gateway Gateway, quota QuotaResolver) *Service {
	return &Service{repo: repo, gateway: gateway, quota: quota}
}

// CreateResult is returned from Create; RemoteStatus echoes the raw gateway
// status even though the local row always starts disconnected.
type CreateResult struct {
	Session      *domain.Session
	RemoteStatus string
}

// Create registers a session with the gateway and persists the local mirror.
// The local status is forced to disconnected regardless of what the gateway
// reports; no local row exists if the gateway call fails.
func (s *Service) Create(ctx context.Context, userID int64, phoneNumber, name string) (*CreateResult, error) {
	if name == "" {
		name = fmt.Sprintf("Session-%s", phoneNumber)
	}

	max, err := s.quota.MaxSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count >= int64(max) {
		return nil, ErrQuotaExceeded
	}

	remote, err := s.gateway.CreateSession(ctx, wasender.CreateSessionRequest{
		Name:                 name,
		PhoneNumber:          phoneNumber,
		AccountProtection:    false,
		LogMessages:          true,
		ReadIncomingMessages: true,
		WebhookEnabled:       false,
		WebhookEvents:        []string{},
		AutoRejectCalls:      false,
	})
	if err != nil {
		return nil, err
	}

	sess := &domain.Session{
		ID:            common.UUIDint64(),
		UserId:        userID,
		PhoneNumber:   phoneNumber,
		Name:          name,
		Status:        domain.SessionDisconnected,
		RemoteId:      strconv.FormatInt(remote.ID, 10),
		RemoteApiKey:  remote.ApiKey,
		WebhookSecret: remote.WebhookSecret,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		// The remote session is left orphaned here; no compensating delete
		// is attempted.
		zap.L().Error("reconcile: local create failed after remote create",
			zap.String("remote_id", sess.RemoteId), zap.Error(err))
		return nil, err
	}
	return &CreateResult{Session: sess, RemoteStatus: remote.Status}, nil
}

// ConnectResult carries the connect acknowledgment; QRCode is empty unless
// the gateway issued one.
type ConnectResult struct {
	Session      *domain.Session
	RemoteStatus string
	QRCode       string
}

// Connect triggers a remote connect and marks the local row connecting. A QR
// payload in the response is persisted alongside.
func (s *Service) Connect(ctx context.Context, userID, sessionID int64) (*ConnectResult, error) {
	sess, err := s.getOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	conn, err := s.gateway.Connect(ctx, sess.RemoteId)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	fields := map[string]interface{}{
		"status":         domain.SessionConnecting,
		"last_active_at": now,
	}
	if conn.QRCode != "" {
		fields["qr_code"] = conn.QRCode
	}
	if err := s.repo.UpdateFields(ctx, sessionID, userID, fields); err != nil {
		return nil, err
	}

	sess.Status = domain.SessionConnecting
	sess.LastActiveAt = &now
	if conn.QRCode != "" {
		sess.QRCode = conn.QRCode
	}
	return &ConnectResult{Session: sess, RemoteStatus: conn.Status, QRCode: conn.QRCode}, nil
}

// QRCode fetches a fresh QR payload from the gateway and stores it. No local
// mutation happens when the gateway call fails.
func (s *Service) QRCode(ctx context.Context, userID, sessionID int64) (*domain.Session, string, error) {
	sess, err := s.getOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, "", err
	}

	code, err := s.gateway.QRCode(ctx, sess.RemoteId)
	if err != nil {
		return nil, "", err
	}

	if err := s.repo.UpdateFields(ctx, sessionID, userID, map[string]interface{}{
		"qr_code": code,
	}); err != nil {
		return nil, "", err
	}
	sess.QRCode = code
	return sess, code, nil
}

// StatusResult pairs the raw remote status string with the updated local row.
type StatusResult struct {
	Session      *domain.Session
	RemoteStatus string
}

// Status queries the gateway with the session's own api key, maps the remote
// vocabulary into the local enum and overwrites the local status. The
// last-active timestamp refreshes whether or not the mapped value changed.
func (s *Service) Status(ctx context.Context, userID, sessionID int64) (*StatusResult, error) {
	sess, err := s.getOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	remote, err := s.gateway.Status(ctx, sess.RemoteApiKey)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	local := MapRemoteStatus(remote)
	if err := s.repo.UpdateFields(ctx, sessionID, userID, map[string]interface{}{
		"status":         local,
		"last_active_at": now,
	}); err != nil {
		return nil, err
	}

	sess.Status = local
	sess.LastActiveAt = &now
	return &StatusResult{Session: sess, RemoteStatus: remote}, nil
}

// Disconnect drops the remote connection and resets the local row to
// disconnected, clearing any stored QR payload.
func (s *Service) Disconnect(ctx context.Context, userID, sessionID int64) (*domain.Session, error) {
	sess, err := s.getOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.gateway.Disconnect(ctx, sess.RemoteId); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.repo.UpdateFields(ctx, sessionID, userID, map[string]interface{}{
		"status":         domain.SessionDisconnected,
		"qr_code":        "",
		"last_active_at": now,
	}); err != nil {
		return nil, err
	}

	sess.Status = domain.SessionDisconnected
	sess.QRCode = ""
	sess.LastActiveAt = &now
	return sess, nil
}

// Delete removes the session. The remote delete is best-effort: its failure
// is logged and the local row is removed regardless, so local bookkeeping
// never blocks on an unreachable or already-cleaned gateway.
func (s *Service) Delete(ctx context.Context, userID, sessionID int64) error {
	sess, err := s.getOwned(ctx, sessionID, userID)
	if err != nil {
		return err
	}

	if err := s.gateway.Delete(ctx, sess.RemoteId); err != nil {
		zap.L().Warn("reconcile: remote delete failed, removing local row anyway",
			zap.Int64("session_id", sessionID),
			zap.String("remote_id", sess.RemoteId),
			zap.Error(err))
	}

	if err := s.repo.DeleteOwned(ctx, sessionID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// List returns all sessions owned by the user.
func (s *Service) List(ctx context.Context, userID int64) ([]domain.Session, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns a single owned session without touching the gateway.
func (s *Service) Get(ctx context.Context, userID, sessionID int64) (*domain.Session, error) {
	return s.getOwned(ctx, sessionID, userID)
}

func (s *Service) getOwned(ctx context.Context, sessionID, userID int64) (*domain.Session, error) {
	sess, err := s.repo.GetOwned(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

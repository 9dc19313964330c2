package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/textmint/textmint/internal/domain"
	"github.com/textmint/textmint/internal/wasender"
	"github.com/textmint/textmint/internal/webserver"
	"github.com/textmint/textmint/pkg/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type sendMessagePayload struct {
	SessionId  int64  `json:"session_id,string" validate:"required"`
	Recipient  string `json:"recipient" validate:"required"`
	Message    string `json:"message" validate:"required"`
	CampaignId *int64 `json:"campaign_id,string"`
}

// sendMessage delivers one message through an owned session and records the
// attempt in the message log, sent or failed.
func (s *Server) sendMessage(c echo.Context) error {
	ident := webserver.CurrentIdentity(c)
	var payload sendMessagePayload
	if err := c.Bind(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "MISSING_FIELDS",
			"session_id, recipient and message are required", nil)
	}

	ctx := c.Request().Context()
	sess, err := s.sessions.Get(ctx, ident.UserID, payload.SessionId)
	if err != nil {
		return gatewayFail(c, err)
	}

	if payload.CampaignId != nil {
		var count int64
		err := s.db.WithContext(ctx).Model(&domain.Campaign{}).
			Where("id = ? AND user_id = ?", *payload.CampaignId, ident.UserID).
			Count(&count).Error
		if err != nil || count == 0 {
			return webserver.Fail(c, http.StatusNotFound, "CAMPAIGN_NOT_FOUND", "Campaign not found", nil)
		}
	}

	sendErr := s.gateway.SendText(ctx, sess.RemoteApiKey, wasender.SendMessageRequest{
		To:   payload.Recipient,
		Text: payload.Message,
	})

	status := domain.MessageSent
	if sendErr != nil {
		status = domain.MessageFailed
	}
	logEntry := &domain.MessageLog{
		ID:             common.UUIDint64(),
		CampaignId:     payload.CampaignId,
		SessionId:      sess.ID,
		Recipient:      payload.Recipient,
		MessageContent: payload.Message,
		Status:         status,
		Timestamp:      time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(logEntry).Error; err != nil {
		zap.L().Error("messages: log write failed", zap.Error(err))
	}

	if sendErr != nil {
		return gatewayFail(c, sendErr)
	}
	return webserver.Ok(c, map[string]interface{}{
		"message_id": logEntry.ID,
		"status":     status,
	})
}

type campaignPayload struct {
	Name           string `json:"name" validate:"required,min=1,max=200"`
	MessageContent string `json:"message_content"`
}

func (s *Server) createCampaign(c echo.Context) error {
	ident := webserver.CurrentIdentity(c)
	var payload campaignPayload
	if err := c.Bind(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "MISSING_FIELDS", "name is required", nil)
	}

	campaign := &domain.Campaign{
		ID:             common.UUIDint64(),
		UserId:         ident.UserID,
		Name:           payload.Name,
		Status:         domain.CampaignDraft,
		MessageContent: payload.MessageContent,
	}
	if err := s.db.WithContext(c.Request().Context()).Create(campaign).Error; err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create campaign", nil)
	}
	return webserver.Created(c, campaign)
}

func (s *Server) listCampaigns(c echo.Context) error {
	ident := webserver.CurrentIdentity(c)
	var rows []domain.Campaign
	err := s.db.WithContext(c.Request().Context()).
		Where("user_id = ?", ident.UserID).
		Order("id DESC").Find(&rows).Error
	if err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query campaigns", nil)
	}
	return webserver.Ok(c, map[string]interface{}{"campaigns": rows})
}

func (s *Server) getCampaign(c echo.Context) error {
	ident := webserver.CurrentIdentity(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid campaign ID", nil)
	}

	db := s.db.WithContext(c.Request().Context())
	var campaign domain.Campaign
	err = db.Where("id = ? AND user_id = ?", id, ident.UserID).First(&campaign).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return webserver.Fail(c, http.StatusNotFound, "CAMPAIGN_NOT_FOUND", "Campaign not found", nil)
	} else if err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query campaign", nil)
	}

	var logs []domain.MessageLog
	_ = db.Where("campaign_id = ?", id).Order("timestamp DESC").Limit(100).Find(&logs).Error
	return webserver.Ok(c, map[string]interface{}{
		"campaign": campaign,
		"messages": logs,
	})
}

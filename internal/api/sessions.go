package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/textmint/textmint/internal/webserver"
)

type createSessionPayload struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=5,max=20"`
	SessionName string `json:"session_name"`
}

func (s *Server) listSessions(c echo.Context) error {
	ident := webserver.CurrentIdentity(c)
	rows, err := s.sessions.List(c.Request().Context(), ident.UserID)
	if err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query sessions", nil)
	}
	return webserver.Ok(c, map[string]interface{}{"sessions": rows})
}

func (s *Server) createSession(c echo.Context) error {
	ident := webserver.CurrentIdentity(c)
	var payload createSessionPayload
	if err := c.Bind(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "MISSING_FIELDS", "phone_number is required", nil)
	}

	res, err := s.sessions.Create(c.Request().Context(), ident.UserID, payload.PhoneNumber, payload.SessionName)
	if err != nil {
		return gatewayFail(c, err)
	}
	return webserver.Created(c, map[string]interface{}{
		"session_id":   res.Session.ID,
		"remote_id":    res.Session.RemoteId,
		"phone_number": res.Session.PhoneNumber,
		"session_name": res.Session.Name,
		// remote status is echoed for visibility; the local row starts
		// disconnected either way
		"status": res.RemoteStatus,
	})
}

func (s *Server) connectSession(c echo.Context) error {
	ident := webserver.CurrentIdentity(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid session ID", nil)
	}

	res, err := s.sessions.Connect(c.Request().Context(), ident.UserID, id)
	if err != nil {
		return gatewayFail(c, err)
	}

	data := map[string]interface{}{
		"status":  res.RemoteStatus,
		"message": "Session connecting...",
	}
	if res.QRCode != "" {
		data["qr_code"] = res.QRCode
		data["message"] = "Session initialized. Scan QR code to connect."
	}
	return webserver.Ok(c, data)
}

func (s *Server) getSessionQR(c echo.Context) error {
	ident := webserver.CurrentIdentity(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid session ID", nil)
	}

	sess, code, err := s.sessions.QRCode(c.Request().Context(), ident.UserID, id)
	if err != nil {
		return gatewayFail(c, err)
	}
	return webserver.Ok(c, map[string]interface{}{
		"session_id":   sess.ID,
		"phone_number": sess.PhoneNumber,
		"qr_code":      code,
	})
}

func (s *Server) getSessionStatus(c echo.Context) error {
	ident := webserver.CurrentIdentity(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid session ID", nil)
	}

	res, err := s.sessions.Status(c.Request().Context(), ident.UserID, id)
	if err != nil {
		return gatewayFail(c, err)
	}
	return webserver.Ok(c, map[string]interface{}{
		"session_id":   res.Session.ID,
		"status":       res.RemoteStatus,
		"local_status": res.Session.Status,
		"phone_number": res.Session.PhoneNumber,
		"session_name": res.Session.Name,
		"last_active":  res.Session.LastActiveAt,
	})
}

func (s *Server) disconnectSession(c echo.Context) error {
	ident := webserver.CurrentIdentity(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid session ID", nil)
	}

	sess, err := s.sessions.Disconnect(c.Request().Context(), ident.UserID, id)
	if err != nil {
		return gatewayFail(c, err)
	}
	return webserver.Ok(c, map[string]interface{}{
		"session_id": sess.ID,
		"status":     sess.Status,
		"message":    "Session disconnected successfully",
	})
}

func (s *Server) deleteSession(c echo.Context) error {
	ident := webserver.CurrentIdentity(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid session ID", nil)
	}

	if err := s.sessions.Delete(c.Request().Context(), ident.UserID, id); err != nil {
		return gatewayFail(c, err)
	}
	return webserver.Ok(c, map[string]interface{}{"message": "Session deleted successfully"})
}

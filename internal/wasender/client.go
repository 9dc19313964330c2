package wasender

import (
	"context"
	"fmt"

	"github.com/guonaihong/gout"
	"github.com/pkg/errors"
)

// Client talks to the remote WhatsApp session gateway. All session management
// calls carry the account bearer token; Status and SendText authenticate with
// a per-session api key supplied by the caller.
type Client struct {
	baseURL string
	apiKey  string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{baseURL: baseURL, apiKey: apiKey}
}

func (c *Client) authHeader(token string) gout.H {
	return gout.H{
		"Authorization": "Bearer " + token,
		"Content-Type":  "application/json",
	}
}

// CreateSession registers a new session with the gateway and returns its
// remote id and credentials.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionData, error) {
	var (
		code int
		body []byte
	)
	err := gout.POST(c.baseURL+"/whatsapp-sessions").
		WithContext(ctx).
		SetHeader(c.authHeader(c.apiKey)).
		SetJSON(req).
		Code(&code).
		BindBody(&body).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "wasender create session")
	}
	if code < 200 || code >= 300 {
		return nil, &APIError{StatusCode: code, Body: string(body)}
	}
	var env sessionEnvelope
	if err := jsonAPI.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, "wasender create session: decode")
	}
	if !env.Success {
		return nil, &APIError{StatusCode: code, Body: string(body)}
	}
	return &env.Data, nil
}

// Connect asks the gateway to start connecting the remote session. The
// response may embed a QR payload for the user to scan.
func (c *Client) Connect(ctx context.Context, remoteID string) (*ConnectData, error) {
	var (
		code int
		body []byte
	)
	err := gout.POST(fmt.Sprintf("%s/whatsapp-sessions/%s/connect", c.baseURL, remoteID)).
		WithContext(ctx).
		SetHeader(c.authHeader(c.apiKey)).
		Code(&code).
		BindBody(&body).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "wasender connect")
	}
	if code < 200 || code >= 300 {
		return nil, &APIError{StatusCode: code, Body: string(body)}
	}
	var env connectEnvelope
	if err := jsonAPI.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, "wasender connect: decode")
	}
	return &env.Data, nil
}

// QRCode fetches the current pairing QR payload for the remote session.
func (c *Client) QRCode(ctx context.Context, remoteID string) (string, error) {
	var (
		code int
		body []byte
	)
	err := gout.GET(fmt.Sprintf("%s/whatsapp-sessions/%s/qrcode", c.baseURL, remoteID)).
		WithContext(ctx).
		SetHeader(c.authHeader(c.apiKey)).
		Code(&code).
		BindBody(&body).
		Do()
	if err != nil {
		return "", errors.Wrap(err, "wasender qrcode")
	}
	if code < 200 || code >= 300 {
		return "", &APIError{StatusCode: code, Body: string(body)}
	}
	var env qrEnvelope
	if err := jsonAPI.Unmarshal(body, &env); err != nil {
		return "", errors.Wrap(err, "wasender qrcode: decode")
	}
	if !env.Success {
		return "", &APIError{StatusCode: code, Body: string(body)}
	}
	return env.Data.QRCode, nil
}

// Status returns the gateway's status string for the session owning
// sessionApiKey. This is the one call authenticated with per-session
// credentials rather than the account token.
func (c *Client) Status(ctx context.Context, sessionApiKey string) (string, error) {
	var (
		code int
		body []byte
	)
	err := gout.GET(c.baseURL+"/status").
		WithContext(ctx).
		SetHeader(c.authHeader(sessionApiKey)).
		Code(&code).
		BindBody(&body).
		Do()
	if err != nil {
		return "", errors.Wrap(err, "wasender status")
	}
	if code < 200 || code >= 300 {
		return "", &APIError{StatusCode: code, Body: string(body)}
	}
	var resp statusResponse
	if err := jsonAPI.Unmarshal(body, &resp); err != nil {
		return "", errors.Wrap(err, "wasender status: decode")
	}
	return resp.Status, nil
}

// Disconnect asks the gateway to drop the session's connection.
func (c *Client) Disconnect(ctx context.Context, remoteID string) error {
	var (
		code int
		body []byte
	)
	err := gout.POST(fmt.Sprintf("%s/whatsapp-sessions/%s/disconnect", c.baseURL, remoteID)).
		WithContext(ctx).
		SetHeader(c.authHeader(c.apiKey)).
		Code(&code).
		BindBody(&body).
		Do()
	if err != nil {
		return errors.Wrap(err, "wasender disconnect")
	}
	if code < 200 || code >= 300 {
		return &APIError{StatusCode: code, Body: string(body)}
	}
	return nil
}

// Delete removes the session on the gateway side.
func (c *Client) Delete(ctx context.Context, remoteID string) error {
	var (
		code int
		body []byte
	)
	err := gout.DELETE(fmt.Sprintf("%s/whatsapp-sessions/%s", c.baseURL, remoteID)).
		WithContext(ctx).
		SetHeader(c.authHeader(c.apiKey)).
		Code(&code).
		BindBody(&body).
		Do()
	if err != nil {
		return errors.Wrap(err, "wasender delete")
	}
	if code < 200 || code >= 300 {
		return &APIError{StatusCode: code, Body: string(body)}
	}
	return nil
}

// SendText delivers a text message through the session owning sessionApiKey.
func (c *Client) SendText(ctx context.Context, sessionApiKey string, req SendMessageRequest) error {
	var (
		code int
		body []byte
	)
	err := gout.POST(c.baseURL+"/send-message").
		WithContext(ctx).
		SetHeader(c.authHeader(sessionApiKey)).
		SetJSON(req).
		Code(&code).
		BindBody(&body).
		Do()
	if err != nil {
		return errors.Wrap(err, "wasender send")
	}
	if code < 200 || code >= 300 {
		return &APIError{StatusCode: code, Body: string(body)}
	}
	return nil
}

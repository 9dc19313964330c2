package wasender

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateSessionParsesEnvelope(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"success":true,"data":{"id":7,"status":"need_scan","api_key":"sk-7","webhook_secret":"wh-7"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "acct")
	data, err := c.CreateSession(context.Background(), CreateSessionRequest{
		Name:        "S1",
		PhoneNumber: "+1555",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if gotPath != "/whatsapp-sessions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer acct" {
		t.Errorf("auth = %q, want account token", gotAuth)
	}
	if data.ID != 7 || data.ApiKey != "sk-7" || data.WebhookSecret != "wh-7" {
		t.Errorf("data = %+v", data)
	}
	if data.Status != "need_scan" {
		t.Errorf("status = %q", data.Status)
	}
}

func TestCreateSessionErrorBodyPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"success":false,"message":"phone already registered"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "acct")
	_, err := c.CreateSession(context.Background(), CreateSessionRequest{PhoneNumber: "+1555"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if apiErr.Body != `{"success":false,"message":"phone already registered"}` {
		t.Errorf("body = %q, want raw passthrough", apiErr.Body)
	}
}

func TestCreateSessionSuccessFalseIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"message":"quota"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "acct")
	_, err := c.CreateSession(context.Background(), CreateSessionRequest{PhoneNumber: "+1"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError on success:false", err)
	}
}

func TestStatusUsesSessionKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"status":"connected"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "acct")
	status, err := c.Status(context.Background(), "session-key")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != "connected" {
		t.Errorf("status = %q", status)
	}
	if gotAuth != "Bearer session-key" {
		t.Errorf("auth = %q, want session key not account token", gotAuth)
	}
}

func TestConnectDecodesOptionalQR(t *testing.T) {
	bodies := []string{
		`{"success":true,"data":{"status":"connecting","qrCode":"QR"}}`,
		`{"success":true,"data":{"status":"connecting"}}`,
	}
	wantQR := []string{"QR", ""}
	for i, respBody := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, respBody)
		}))
		c := NewClient(srv.URL, "acct")
		conn, err := c.Connect(context.Background(), "9")
		srv.Close()
		if err != nil {
			t.Fatalf("connect[%d]: %v", i, err)
		}
		if conn.QRCode != wantQR[i] {
			t.Errorf("connect[%d] qr = %q, want %q", i, conn.QRCode, wantQR[i])
		}
		if conn.Status != "connecting" {
			t.Errorf("connect[%d] status = %q", i, conn.Status)
		}
	}
}

func TestDeleteNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "no such session")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "acct")
	err := c.Delete(context.Background(), "9")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Body != "no such session" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

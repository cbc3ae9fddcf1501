package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoginDecodesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("undecodable request body: %v", err)
		}
		if body["identity"] != "user@org.example" || body["secret"] != "hunter2hunter2" {
			t.Errorf("unexpected credentials %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":         map[string]any{"id": "u-1", "email": "user@org.example", "email_verified": true},
			"token":        "access-1",
			"refreshToken": "refresh-1",
			"expiresIn":    900,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	resp, err := client.Login(context.Background(), "user@org.example", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.User.ID != "u-1" || resp.Token != "access-1" || resp.RefreshToken != "refresh-1" || resp.ExpiresIn != 900 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestLoginMapsBackendRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_credentials","message":"wrong password"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	_, err := client.Login(context.Background(), "user@org.example", "nope")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != CodeInvalidCredentials || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("unexpected APIError %+v", apiErr)
	}
}

func TestRejectionWithOpaqueBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	_, err := client.Login(context.Background(), "user@org.example", "x")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "" {
		t.Fatalf("expected empty code for opaque body, got %q", apiErr.Code)
	}
}

func TestServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	_, err := client.Refresh(context.Background(), "refresh-1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, nil)
	err := client.ResetPassword(context.Background(), "user@org.example")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestLogoutSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	if err := client.Logout(context.Background(), "access-1"); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if gotAuth != "Bearer access-1" {
		t.Fatalf("unexpected Authorization header %q", gotAuth)
	}
}

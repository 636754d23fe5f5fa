package connection

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func writeEnvelope(w http.ResponseWriter, status int, code, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":       code,
		"message":    message,
		"request_id": "req-1",
		"data":       data,
	})
}

func TestNewClientScheme(t *testing.T) {
	tests := []struct {
		name string
		conn Connection
		want string
	}{
		{"explicit http", Connection{Server: "http://node:7080/"}, "http://node:7080"},
		{"explicit https", Connection{Server: "https://node:7080"}, "https://node:7080"},
		{"bare", Connection{Server: "node:7080"}, "http://node:7080"},
		{"bare insecure", Connection{Server: "node:7080", Insecure: true}, "https://node:7080"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.conn, time.Second)
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}
			if c.BaseURL() != tt.want {
				t.Errorf("BaseURL() = %q, want %q", c.BaseURL(), tt.want)
			}
		})
	}
}

func TestNewClientBadCAFile(t *testing.T) {
	if _, err := NewClient(Connection{Server: "node:7080", CAFile: "/nonexistent/ca.pem"}, 0); err == nil {
		t.Fatal("NewClient() should fail on a missing CA file")
	}
}

func TestClientHeadersAndData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer gwat_token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get(SubjectHeader); got != "subj" {
			t.Errorf("%s = %q", SubjectHeader, got)
		}
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "gridwire-cli/") {
			t.Errorf("User-Agent = %q", ua)
		}
		switch r.Method {
		case http.MethodPost:
			var body map[string][]string
			json.NewDecoder(r.Body).Decode(&body)
			writeEnvelope(w, http.StatusOK, "OK", "Success", map[string]int{"n": len(body["caches"])})
		case http.MethodDelete:
			writeEnvelope(w, http.StatusOK, "OK", "Success", map[string]int{"n": -1})
		default:
			writeEnvelope(w, http.StatusOK, "OK", "Success", map[string]int{"n": 7})
		}
	}))
	defer srv.Close()

	c, err := NewClient(Connection{Server: srv.URL, Token: "gwat_token", Subject: "subj"}, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	var got struct{ N int }
	if err := c.Get(ctx, "/v1/x", &got); err != nil || got.N != 7 {
		t.Errorf("Get() = %+v, %v", got, err)
	}
	if err := c.Post(ctx, "/v1/x", map[string][]string{"caches": {"a", "b"}}, &got); err != nil || got.N != 2 {
		t.Errorf("Post() = %+v, %v", got, err)
	}
	if err := c.Delete(ctx, "/v1/x", &got); err != nil || got.N != -1 {
		t.Errorf("Delete() = %+v, %v", got, err)
	}
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantCode string
		status   int
	}{
		{
			name: "envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusGatewayTimeout, "GW-SYS-5040", "operation timed out", nil)
			},
			wantCode: "GW-SYS-5040",
			status:   http.StatusGatewayTimeout,
		},
		{
			name: "plain text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			},
			status: http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			c, _ := NewClient(Connection{Server: srv.URL}, time.Second)

			err := c.Get(context.Background(), "/v1/cluster", nil)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Get() error = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status || apiErr.Code != tt.wantCode {
				t.Errorf("APIError = %+v", apiErr)
			}
			if tt.wantCode != "" && !IsCode(err, tt.wantCode) {
				t.Errorf("IsCode(%q) = false", tt.wantCode)
			}
		})
	}
}

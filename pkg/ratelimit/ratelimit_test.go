// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-sss.
//
// go-sss is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew_Disabled(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, RequestsPerMinute: 1}},
		{"zero rate", &Config{Enabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.config)
			defer l.Stop()

			if l.IsEnabled() {
				t.Fatal("limiter should be disabled")
			}
			for i := 0; i < 100; i++ {
				if !l.Allow("client") {
					t.Fatal("disabled limiter rejected a request")
				}
			}
			if err := l.Wait(context.Background(), "client"); err != nil {
				t.Errorf("Wait() error = %v", err)
			}
		})
	}
}

func TestAllow_Burst(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 60, Burst: 3})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("a") {
			t.Fatalf("request %d within burst rejected", i)
		}
	}
	if l.Allow("a") {
		t.Error("request beyond burst allowed")
	}
	if !l.Allow("b") {
		t.Error("second client shares first client's bucket")
	}
}

func TestWait_ContextCanceled(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 1, Burst: 1})
	defer l.Stop()

	_ = l.Allow("a")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "a"); err == nil {
		t.Error("Wait() succeeded with an exhausted bucket and short deadline")
	}
}

func TestCleanup(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 60, MaxIdle: time.Minute})
	defer l.Stop()

	_ = l.Allow("a")
	_ = l.Allow("b")
	if got := l.Stats().ActiveClients; got != 2 {
		t.Fatalf("active_clients = %v, want 2", got)
	}

	l.cleanup(time.Now().Add(2 * time.Minute))
	if got := l.Stats().ActiveClients; got != 0 {
		t.Errorf("active_clients after cleanup = %v, want 0", got)
	}
}

func TestStop_Idempotent(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 60})
	l.Stop()
	l.Stop()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		trust   bool
		remote  string
		headers map[string]string
		want    string
	}{
		{"remote addr", false, "10.0.0.1:1234", nil, "10.0.0.1"},
		{"remote without port", false, "10.0.0.1", nil, "10.0.0.1"},
		{"untrusted xff ignored", false, "10.0.0.1:1", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "10.0.0.1"},
		{"trusted xff first hop", true, "10.0.0.1:1", map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, "1.2.3.4"},
		{"trusted real ip", true, "10.0.0.1:1", map[string]string{"X-Real-IP": "9.9.9.9"}, "9.9.9.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(&Config{TrustProxyHeaders: tt.trust})
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := l.ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	l := New(&Config{Enabled: true, RequestsPerMinute: 60, Burst: 1})
	defer l.Stop()

	handler := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/split", nil)
	req.RemoteAddr = "192.0.2.1:5000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}
	if got := l.Stats().Rejected; got != 1 {
		t.Errorf("Rejected = %d, want 1", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

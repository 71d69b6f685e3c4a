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

package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsEnabled(t *testing.T) {
	if !IsEnabled() {
		t.Error("Expected metrics to be enabled by default")
	}

	Disable()
	if IsEnabled() {
		t.Error("Expected metrics to be disabled after Disable()")
	}

	Enable()
	if !IsEnabled() {
		t.Error("Expected metrics to be enabled after Enable()")
	}
}

func TestRecordOperation(t *testing.T) {
	Enable()
	OperationsTotal.Reset()
	OperationDuration.Reset()

	RecordOperation(OpSplit, SourceLibrary, StatusSuccess, 0.0001)
	if got := testutil.ToFloat64(OperationsTotal.WithLabelValues(OpSplit, SourceLibrary, StatusSuccess)); got != 1 {
		t.Errorf("Expected 1 split recorded, got %v", got)
	}
	if count := testutil.CollectAndCount(OperationDuration); count != 1 {
		t.Errorf("Expected 1 histogram series, got %d", count)
	}

	RecordOperation(OpCombine, SourceREST, StatusError, 0.0002)
	if count := testutil.CollectAndCount(OperationsTotal); count != 2 {
		t.Errorf("Expected 2 series, got %d", count)
	}
}

func TestRecordOperationWhenDisabled(t *testing.T) {
	Disable()
	defer Enable()
	OperationsTotal.Reset()

	RecordOperation(OpSplit, SourceCLI, StatusSuccess, 0.1)
	RecordError(OpSplit, SourceCLI, "validation")
	RecordVolume(OpSplit, 32, 5)

	if count := testutil.CollectAndCount(OperationsTotal); count != 0 {
		t.Errorf("Expected no operations recorded when disabled, got %d", count)
	}
}

func TestRecordError(t *testing.T) {
	Enable()
	ErrorsTotal.Reset()

	RecordError(OpCombine, SourceREST, "validation")
	RecordError(OpCombine, SourceREST, "validation")

	if got := testutil.ToFloat64(ErrorsTotal.WithLabelValues(OpCombine, SourceREST, "validation")); got != 2 {
		t.Errorf("Expected 2 errors, got %v", got)
	}
}

func TestRecordVolume(t *testing.T) {
	Enable()
	SecretBytesTotal.Reset()
	SharesTotal.Reset()

	RecordVolume(OpSplit, 32, 5)
	RecordVolume(OpSplit, 16, 3)

	if got := testutil.ToFloat64(SecretBytesTotal.WithLabelValues(OpSplit)); got != 48 {
		t.Errorf("secret bytes = %v, want 48", got)
	}
	if got := testutil.ToFloat64(SharesTotal.WithLabelValues(OpSplit)); got != 8 {
		t.Errorf("shares = %v, want 8", got)
	}
}

func TestRecordCodec(t *testing.T) {
	Enable()
	CodecOperationsTotal.Reset()

	RecordCodec(OpEncode, "base64", StatusSuccess)
	if got := testutil.ToFloat64(CodecOperationsTotal.WithLabelValues(OpEncode, "base64", StatusSuccess)); got != 1 {
		t.Errorf("codec ops = %v, want 1", got)
	}
}

func TestSetStoredShareSets(t *testing.T) {
	Enable()
	StoredShareSets.Reset()

	SetStoredShareSets("memory", 3)
	if got := testutil.ToFloat64(StoredShareSets.WithLabelValues("memory")); got != 3 {
		t.Errorf("stored share sets = %v, want 3", got)
	}
}

func TestHTTPMiddleware(t *testing.T) {
	Enable()
	HTTPRequestsTotal.Reset()
	HTTPResponseBytes.Reset()
	ActiveConnections.Reset()

	tests := []struct {
		name       string
		route      RouteFunc
		handler    http.HandlerFunc
		wantRoute  string
		wantStatus string
		wantBytes  float64
	}{
		{
			name:       "implicit ok",
			route:      func(*http.Request) string { return "/v1/split" },
			handler:    func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) },
			wantRoute:  "/v1/split",
			wantStatus: "200",
			wantBytes:  2,
		},
		{
			name:       "bad request",
			route:      func(*http.Request) string { return "/v1/sets/{id}" },
			handler:    func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadRequest) },
			wantRoute:  "/v1/sets/{id}",
			wantStatus: "400",
		},
		{
			name:       "unmatched",
			handler:    func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			wantRoute:  RouteUnmatched,
			wantStatus: "404",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := HTTPMiddleware(tt.route)(tt.handler)
			req := httptest.NewRequest(http.MethodPost, "/v1/split", nil)
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodPost, tt.wantRoute, tt.wantStatus)); got != 1 {
				t.Errorf("requests{%s,%s} = %v, want 1", tt.wantRoute, tt.wantStatus, got)
			}
			if got := testutil.ToFloat64(HTTPResponseBytes.WithLabelValues(tt.wantRoute)); got != tt.wantBytes {
				t.Errorf("response bytes{%s} = %v, want %v", tt.wantRoute, got, tt.wantBytes)
			}
		})
	}

	if got := testutil.ToFloat64(ActiveConnections.WithLabelValues(ProtocolHTTP)); got != 0 {
		t.Errorf("active connections = %v after requests completed", got)
	}
}

func TestSetCipherUsage(t *testing.T) {
	Enable()
	CipherEncryptedBytes.Reset()
	CipherRemainingBytes.Reset()

	SetCipherUsage("aes-256-gcm", 96, 904)
	if got := testutil.ToFloat64(CipherEncryptedBytes.WithLabelValues("aes-256-gcm")); got != 96 {
		t.Errorf("encrypted bytes = %v, want 96", got)
	}
	if got := testutil.ToFloat64(CipherRemainingBytes.WithLabelValues("aes-256-gcm")); got != 904 {
		t.Errorf("remaining bytes = %v, want 904", got)
	}
}

func TestCollector(t *testing.T) {
	Enable()
	CollectorErrorsTotal.Reset()
	StoredShareSets.Reset()

	calls := make(chan struct{}, 16)
	c := NewCollector(10 * time.Millisecond)
	c.Register("storage", func(context.Context) error {
		SetStoredShareSets("memory", 2)
		select {
		case calls <- struct{}{}:
		default:
		}
		return nil
	})
	c.Register("broken", func(context.Context) error { return errors.New("probe failed") })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	c.Start(ctx)

	// Start collects synchronously before returning.
	if got := testutil.ToFloat64(StoredShareSets.WithLabelValues("memory")); got != 2 {
		t.Errorf("stored share sets = %v, want 2", got)
	}
	if got := testutil.ToFloat64(Goroutines); got <= 0 {
		t.Errorf("goroutines gauge = %v", got)
	}
	if got := testutil.ToFloat64(MemoryAllocBytes); got <= 0 {
		t.Errorf("memory gauge = %v", got)
	}

	<-calls
	<-calls
	c.Stop()
	c.Stop()

	if got := testutil.ToFloat64(CollectorErrorsTotal.WithLabelValues("broken")); got < 2 {
		t.Errorf("probe errors = %v, want at least 2", got)
	}
}

func TestCollector_StopBeforeStart(t *testing.T) {
	NewCollector(0).Stop()
}

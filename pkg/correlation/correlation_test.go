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

package correlation

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestWithCorrelationID(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		id   string
	}{
		{"background context", context.Background(), "abc-123"},
		{"nil context", nil, "def-456"},
		{"uuid", context.Background(), uuid.New().String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithCorrelationID(tt.ctx, tt.id)
			if got := GetCorrelationID(ctx); got != tt.id {
				t.Errorf("GetCorrelationID() = %q, want %q", got, tt.id)
			}
		})
	}
}

func TestGetCorrelationID_Missing(t *testing.T) {
	if got := GetCorrelationID(context.Background()); got != "" {
		t.Errorf("expected empty ID, got %q", got)
	}
	//nolint:staticcheck // nil context is part of the contract
	if got := GetCorrelationID(nil); got != "" {
		t.Errorf("expected empty ID for nil context, got %q", got)
	}

	ctx := context.WithValue(context.Background(), CorrelationIDKey, 42)
	if got := GetCorrelationID(ctx); got != "" {
		t.Errorf("expected empty ID for non-string value, got %q", got)
	}
}

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("NewID() = %q is not a UUID: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("duplicate ID %q", id)
		}
		seen[id] = true
	}
}

func TestGetOrGenerate(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "existing")
	if got := GetOrGenerate(ctx); got != "existing" {
		t.Errorf("GetOrGenerate() = %q, want existing", got)
	}

	generated := GetOrGenerate(context.Background())
	if _, err := uuid.Parse(generated); err != nil {
		t.Errorf("generated ID %q is not a UUID", generated)
	}
}

func TestFromHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"none", nil, ""},
		{"correlation header", map[string]string{CorrelationIDHeader: "c-1"}, "c-1"},
		{"request header", map[string]string{RequestIDHeader: "r-1"}, "r-1"},
		{"correlation wins", map[string]string{CorrelationIDHeader: "c-1", RequestIDHeader: "r-1"}, "c-1"},
		{"invalid correlation falls back", map[string]string{CorrelationIDHeader: "bad id", RequestIDHeader: "r-1"}, "r-1"},
		{"newline rejected", map[string]string{CorrelationIDHeader: "a\nb"}, ""},
		{"too long", map[string]string{CorrelationIDHeader: strings.Repeat("x", MaxIDLength+1)}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			if got := FromHeaders(h); got != tt.want {
				t.Errorf("FromHeaders() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValid(t *testing.T) {
	if !Valid(strings.Repeat("a", MaxIDLength)) {
		t.Error("ID at max length should be valid")
	}
	if Valid("") {
		t.Error("empty ID should be invalid")
	}
	if Valid("tab\there") {
		t.Error("control characters should be invalid")
	}
}

func BenchmarkNewID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = NewID()
	}
}

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

package rest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-sss/pkg/adapters/logger"
)

func TestResponseWriter(t *testing.T) {
	t.Run("Captures status code on WriteHeader", func(t *testing.T) {
		w := httptest.NewRecorder()
		rw := newResponseWriter(w)

		rw.WriteHeader(http.StatusCreated)

		if rw.statusCode != http.StatusCreated {
			t.Errorf("Expected status code %d, got %d", http.StatusCreated, rw.statusCode)
		}

		if !rw.written {
			t.Error("Expected written flag to be true")
		}
	})

	t.Run("Default status code is 200", func(t *testing.T) {
		w := httptest.NewRecorder()
		rw := newResponseWriter(w)

		if rw.statusCode != http.StatusOK {
			t.Errorf("Expected default status code %d, got %d", http.StatusOK, rw.statusCode)
		}
	})

	t.Run("Write calls WriteHeader if not written", func(t *testing.T) {
		w := httptest.NewRecorder()
		rw := newResponseWriter(w)

		data := []byte("test")
		n, err := rw.Write(data)
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		if n != len(data) {
			t.Errorf("Expected %d bytes written, got %d", len(data), n)
		}

		if !rw.written {
			t.Error("Expected written flag to be true")
		}

		if rw.statusCode != http.StatusOK {
			t.Errorf("Expected status code %d, got %d", http.StatusOK, rw.statusCode)
		}
	})

	t.Run("WriteHeader only once", func(t *testing.T) {
		w := httptest.NewRecorder()
		rw := newResponseWriter(w)

		rw.WriteHeader(http.StatusCreated)
		rw.WriteHeader(http.StatusBadRequest) // Should be ignored

		if rw.statusCode != http.StatusCreated {
			t.Errorf("Expected status code %d, got %d", http.StatusCreated, rw.statusCode)
		}
	})
}

func TestBodyLimitMiddleware(t *testing.T) {
	readAll := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req SplitRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Rejects declared length over limit", func(t *testing.T) {
		handler := BodyLimitMiddleware(8)(readAll)
		req := httptest.NewRequest(http.MethodPost, "/v1/split", strings.NewReader(`{"secret":"c2VjcmV0"}`))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), CodeRequestTooLarge)
	})

	t.Run("Rejects streamed body over limit", func(t *testing.T) {
		handler := BodyLimitMiddleware(8)(readAll)
		req := httptest.NewRequest(http.MethodPost, "/v1/split", strings.NewReader(`{"secret":"c2VjcmV0"}`))
		req.ContentLength = -1
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("Passes body under limit", func(t *testing.T) {
		handler := BodyLimitMiddleware(1024)(readAll)
		req := httptest.NewRequest(http.MethodPost, "/v1/split", strings.NewReader(`{"secret":"c2VjcmV0"}`))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Zero limit disables the cap", func(t *testing.T) {
		handler := BodyLimitMiddleware(0)(readAll)
		req := httptest.NewRequest(http.MethodPost, "/v1/split", strings.NewReader(`{"secret":"c2VjcmV0"}`))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	s := &Server{logger: logger.NewNoOpLogger()}
	handler := s.RecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	require.NotPanics(t, func() { handler.ServeHTTP(w, req) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), CodeInternal)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf strings.Builder
	log, err := logger.New("debug", logger.FormatJSON, &buf)
	require.NoError(t, err)

	s := &Server{logger: log}
	handler := s.LoggingMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	out := buf.String()
	assert.Contains(t, out, "Request started")
	assert.Contains(t, out, "Request completed")
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"path":"/health"`)
}

func TestRecoveryMiddleware_HeaderAlreadyWritten(t *testing.T) {
	s := &Server{logger: logger.NewNoOpLogger()}
	handler := s.RecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	}))

	w := httptest.NewRecorder()
	require.NotPanics(t, func() { handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil)) })
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestRecoveryMiddleware_AbortHandler(t *testing.T) {
	s := &Server{logger: logger.NewNoOpLogger()}
	handler := s.RecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestLoggingMiddleware_Bytes(t *testing.T) {
	var buf strings.Builder
	log, err := logger.New("info", logger.FormatJSON, &buf)
	require.NoError(t, err)

	s := &Server{logger: log}
	handler := s.LoggingMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sets", nil))

	out := buf.String()
	assert.NotContains(t, out, "Request started")
	assert.Contains(t, out, `"bytes":5`)
	assert.Contains(t, out, `"status":200`)
}

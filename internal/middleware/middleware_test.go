package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MorseWayne/shoe_catalog/internal/config"
	"github.com/MorseWayne/shoe_catalog/internal/resp"
)

func configForTest() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "test", AccessTokenTTL: time.Minute}
}

func TestRequestID_CorrelationFallback(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderCorrelationID, "corr-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "corr-1" {
		t.Errorf("id = %q, want corr-1", seen)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	tests := []struct {
		name     string
		header   string
		wantSame bool
	}{
		{"propagates incoming id", "abc-123", true},
		{"generates when missing", "", false},
		{"replaces oversized id", strings.Repeat("x", 200), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(HeaderRequestID, tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if seen == "" {
				t.Fatal("request id missing from context")
			}
			if rr.Header().Get(HeaderRequestID) != seen {
				t.Errorf("response header %q != context id %q", rr.Header().Get(HeaderRequestID), seen)
			}
			if (seen == tt.header) != tt.wantSame {
				t.Errorf("id = %q, header = %q", seen, tt.header)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := RequestID(Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	var body resp.Response
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Code != resp.CodeInternalError || body.RequestID == "" {
		t.Errorf("unexpected body %+v", body)
	}
	if logs.FilterMessage("handler panicked").Len() != 1 {
		t.Error("panic not logged")
	}
}

func TestTimeout(t *testing.T) {
	h := Timeout(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
	var body resp.Response
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body.Code != resp.CodeTimeout {
		t.Errorf("unexpected body %q", rr.Body.String())
	}
}

func TestTimeout_Disabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	if h := Timeout(0)(next); h == nil {
		t.Fatal("nil handler")
	}
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := RequestID(AccessLog(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/catalog", nil))

	entries := logs.FilterMessage("http_access").All()
	if len(entries) != 1 {
		t.Fatalf("expected one access log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) || fields["path"] != "/catalog" {
		t.Errorf("unexpected fields %v", fields)
	}
	if fields["request_id"] == "" {
		t.Error("missing request id")
	}
}

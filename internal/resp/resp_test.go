package resp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOK(t *testing.T) {
	rw := httptest.NewRecorder()
	OK(rw, map[string]string{"status": "ok"}, "req-1", "")

	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	var body Response
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Code != CodeOK || body.RequestID != "req-1" || body.Message != "success" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestError(t *testing.T) {
	rw := httptest.NewRecorder()
	Error(rw, HTTPStatusFromCode(CodeConflict), CodeConflict, "stale", "req-2", "")

	if rw.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rw.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(rw.Body.Bytes(), &body)
	if _, ok := body["data"]; ok {
		t.Error("error response should omit data")
	}
}

func TestHTTPStatusFromCode(t *testing.T) {
	tests := []struct {
		code int
		want int
	}{
		{CodeOK, http.StatusOK},
		{CodeInvalidParam, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeUpstream, http.StatusBadGateway},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeInternalError, http.StatusInternalServerError},
		{12345, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatusFromCode(tt.code); got != tt.want {
			t.Errorf("HTTPStatusFromCode(%d) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

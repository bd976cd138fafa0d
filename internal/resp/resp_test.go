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
	var body Response[map[string]string]
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Code != CodeOK || body.Data["status"] != "ok" || body.RequestID != "req-1" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestError(t *testing.T) {
	rw := httptest.NewRecorder()
	Error(rw, http.StatusForbidden, CodeForbidden, "forbidden", "req-2", "")

	if rw.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rw.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if _, ok := body["data"]; ok {
		t.Errorf("error response should omit data, got %v", body["data"])
	}
	if body["message"] != "forbidden" {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestHTTPStatusFromCode(t *testing.T) {
	cases := map[int]int{
		CodeOK:            http.StatusOK,
		CodeInvalidParam:  http.StatusBadRequest,
		CodeUnauthorized:  http.StatusUnauthorized,
		CodeForbidden:     http.StatusForbidden,
		CodeNotFound:      http.StatusNotFound,
		CodeConflict:      http.StatusConflict,
		CodeTimeout:       http.StatusGatewayTimeout,
		CodeInternalError: http.StatusInternalServerError,
		12345:             http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := HTTPStatusFromCode(code); got != want {
			t.Errorf("code %d: expected %d, got %d", code, want, got)
		}
	}
}

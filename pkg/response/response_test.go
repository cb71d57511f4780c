package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		CodeValidationError:  http.StatusBadRequest,
		CodeBadRequest:       http.StatusBadRequest,
		CodeComputationError: http.StatusUnprocessableEntity,
		CodeRateLimited:      http.StatusTooManyRequests,
		CodeNotFound:         http.StatusNotFound,
		CodeInternalError:    http.StatusInternalServerError,
		"SOMETHING_ELSE":     http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := StatusFor(code); got != want {
			t.Errorf("StatusFor(%s) = %d, want %d", code, got, want)
		}
	}
}

func TestError_Envelope(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(RequestIDKey, "req-42")

	Error(c, CodeComputationError, "duration is undefined")

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got=%d", w.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := ErrorBody{ErrorCode: CodeComputationError, Message: "duration is undefined", RequestID: "req-42"}
	if body != want {
		t.Fatalf("body: got=%+v want=%+v", body, want)
	}
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(RequestIDKey, "req-1")

	Success(c, map[string]string{"value": "1.5"})

	if w.Code != http.StatusOK {
		t.Fatalf("status: got=%d", w.Code)
	}
	var body struct {
		Data      map[string]string `json:"data"`
		RequestID string            `json:"request_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data["value"] != "1.5" || body.RequestID != "req-1" {
		t.Fatalf("body: %+v", body)
	}
}

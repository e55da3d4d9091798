package response_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poppys-produce/backend/pkg/apperr"
	"github.com/poppys-produce/backend/pkg/response"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Success(rec, map[string]string{"hello": "world"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := decode(t, rec)
	if body["status"] != float64(200) {
		t.Errorf("envelope status = %v", body["status"])
	}
	if body["data"].(map[string]interface{})["hello"] != "world" {
		t.Errorf("data = %v", body["data"])
	}
}

func TestFromErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{apperr.PermissionDenied("You do not own this order."), 403, "You do not own this order."},
		{apperr.NotFound("Order abc not found."), 404, "Order abc not found."},
		{apperr.FailedPrecondition("This feature is not enabled."), 412, "This feature is not enabled."},
		{errors.New("driver exploded"), 500, "Something went wrong. Please try again."},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		response.FromError(rec, c.err)

		if rec.Code != c.wantStatus {
			t.Errorf("FromError(%v) status = %d, want %d", c.err, rec.Code, c.wantStatus)
		}
		if body := decode(t, rec); body["message"] != c.wantMsg {
			t.Errorf("FromError(%v) message = %v, want %q", c.err, body["message"], c.wantMsg)
		}
	}
}

func TestValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	response.ValidationError(rec, map[string]string{"email": "The email field is required."})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	errs := body["errors"].(map[string]interface{})
	if errs["email"] != "The email field is required." {
		t.Errorf("errors = %v", errs)
	}
}

package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/packscale/packscale/internal/alerting"
	"github.com/packscale/packscale/internal/logging"
	"github.com/packscale/packscale/internal/models"
	"github.com/packscale/packscale/internal/profiles"
	"github.com/packscale/packscale/internal/services"
)

func TestHandler_IngestMeasurements(t *testing.T) {
	h, store := newTestHandler(t)
	app := newTestApp(h)

	resp, data := doRequest(t, app, "POST", "/v1/backpacks/moc-1/measurements", seedBody)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.StatusCode, data)
	}

	var ir models.IngestResponse
	decode(t, data, &ir)
	if ir.Backpack != "MOC-1" {
		t.Errorf("Expected normalized backpack 'MOC-1', got '%s'", ir.Backpack)
	}
	if ir.Accepted != 5 || ir.Stored != 5 {
		t.Errorf("Expected 5 accepted and stored, got %d/%d", ir.Accepted, ir.Stored)
	}
	if ir.RequestID == "" {
		t.Error("Expected request id")
	}
	if ir.RequestID != resp.Header.Get(logging.RequestIDHeader) {
		t.Errorf("Expected request id to match header")
	}
	if store.Count() != 5 {
		t.Errorf("Expected 5 stored measurements, got %d", store.Count())
	}
}

func TestHandler_IngestBareArray(t *testing.T) {
	h, _ := newTestHandler(t)
	app := newTestApp(h)

	body := `[{"timestamp":"2024-03-04T08:00:00Z","sensorLabel":"left","weightKg":9}]`
	resp, data := doRequest(t, app, "POST", "/v1/backpacks/MOC-2/measurements", body)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.StatusCode, data)
	}

	var ir models.IngestResponse
	decode(t, data, &ir)
	if !ir.Current.Exceeded {
		t.Error("Expected 9 kg to exceed the default 7 kg limit")
	}
	if len(ir.Events) == 0 || ir.Events[0].Kind != alerting.EventOverload {
		t.Errorf("Expected an overload event, got %+v", ir.Events)
	}
}

func TestHandler_IngestErrors(t *testing.T) {
	h, _ := newTestHandler(t)
	app := newTestApp(h)

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode string
	}{
		{"malformed", "/v1/backpacks/MOC-1/measurements", `{"measurements":`, "INVALID_JSON"},
		{"bad sample", "/v1/backpacks/MOC-1/measurements", `[{"timestamp":"later","sensorLabel":"left","weightKg":1}]`, "INVALID_JSON"},
		{"empty batch", "/v1/backpacks/MOC-1/measurements", `{"measurements":[]}`, services.CodeInvalidRequest},
		{"bad code", "/v1/backpacks/a%2Fb/measurements", `[{"timestamp":"2024-03-04T08:00:00Z","sensorLabel":"left","weightKg":1}]`, services.CodeInvalidBackpack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := doRequest(t, app, "POST", tt.path, tt.body)
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", resp.StatusCode)
			}
			var errResp models.ErrorResponse
			decode(t, data, &errResp)
			if errResp.Error.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %s", tt.wantCode, errResp.Error.Code)
			}
		})
	}
}

func TestHandler_Current(t *testing.T) {
	h, _ := newTestHandler(t)
	app := newTestApp(h)
	doRequest(t, app, "POST", "/v1/backpacks/MOC-1/measurements", seedBody)

	resp, data := doRequest(t, app, "GET", "/v1/backpacks/MOC-1/current", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var cur services.CurrentResponse
	decode(t, data, &cur)
	if cur.TotalKg != 6 {
		t.Errorf("Expected total 6, got %v", cur.TotalKg)
	}
	if cur.MaxAllowedKg != 7 {
		t.Errorf("Expected max 7, got %v", cur.MaxAllowedKg)
	}
	if cur.Imbalance.Direction != alerting.DirectionRight {
		t.Errorf("Expected right-heavy, got %s", cur.Imbalance.Direction)
	}
}

func TestHandler_ProfileLifecycle(t *testing.T) {
	h, _ := newTestHandler(t)
	app := newTestApp(h)

	resp, data := doRequest(t, app, "GET", "/v1/backpacks/MOC-1/profile", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var p profiles.Profile
	decode(t, data, &p)
	if !p.Default || p.UserMassKg != 70 {
		t.Errorf("Expected default 70 kg profile, got %+v", p)
	}

	resp, data = doRequest(t, app, "PUT", "/v1/backpacks/MOC-1/profile", `{"userMassKg":60,"overloadPercent":15}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, data)
	}
	decode(t, data, &p)
	if p.Default || p.UserMassKg != 60 || p.OverloadPercent != 15 {
		t.Errorf("Unexpected stored profile %+v", p)
	}

	_, data = doRequest(t, app, "GET", "/v1/profiles", "")
	var list models.ProfileListResponse
	decode(t, data, &list)
	if len(list.Profiles) != 1 {
		t.Errorf("Expected 1 profile, got %d", len(list.Profiles))
	}

	resp, _ = doRequest(t, app, "PUT", "/v1/backpacks/MOC-1/profile", `{"userMassKg":-1,"overloadPercent":15}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}

	resp, _ = doRequest(t, app, "DELETE", "/v1/backpacks/MOC-1/profile", "")
	if resp.StatusCode != fiber.StatusNoContent {
		t.Errorf("Expected status 204, got %d", resp.StatusCode)
	}
	resp, _ = doRequest(t, app, "DELETE", "/v1/backpacks/MOC-1/profile", "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		services.CodeInvalidRequest:  fiber.StatusBadRequest,
		services.CodeInvalidBackpack: fiber.StatusBadRequest,
		services.CodeInvalidProfile:  fiber.StatusBadRequest,
		services.CodeNotFound:        fiber.StatusNotFound,
		services.CodeUnavailable:     fiber.StatusServiceUnavailable,
		services.CodeInternal:        fiber.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := statusFor(code); got != want {
			t.Errorf("statusFor(%s) = %d, want %d", code, got, want)
		}
	}
}

func TestHandler_BackpackCodeSurvivesLaterRequests(t *testing.T) {
	h, store := newTestHandler(t)
	app := newTestApp(h)

	resp, data := doRequest(t, app, "POST", "/v1/backpacks/AAA-1/measurements", seedBody)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.StatusCode, data)
	}
	resp, data = doRequest(t, app, "PUT", "/v1/backpacks/AAA-1/profile", `{"userMassKg":50,"overloadPercent":10}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, data)
	}

	for i := 0; i < 50; i++ {
		doRequest(t, app, "GET", "/v1/backpacks/ZZZ-9/current", "")
		doRequest(t, app, "GET", "/v1/backpacks/ZZZ-9/profile", "")
	}

	codes := store.Backpacks()
	if len(codes) != 1 || codes[0] != "AAA-1" {
		t.Fatalf("Expected stored backpacks [AAA-1], got %v", codes)
	}
	ms, err := store.Query("AAA-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(ms) != 5 {
		t.Errorf("Expected 5 measurements for AAA-1, got %d", len(ms))
	}

	resp, data = doRequest(t, app, "GET", "/v1/backpacks/AAA-1/profile", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected stored profile for AAA-1, got %d: %s", resp.StatusCode, data)
	}
	var p profiles.Profile
	decode(t, data, &p)
	if p.Backpack != "AAA-1" || p.UserMassKg != 50 {
		t.Errorf("Expected AAA-1 profile with 50 kg, got %+v", p)
	}

	resp, data = doRequest(t, app, "GET", "/v1/backpacks/AAA-1/reports/weekday", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, data)
	}
	var rep struct {
		BucketTotals []json.RawMessage `json:"bucketTotals"`
	}
	decode(t, data, &rep)
	if len(rep.BucketTotals) == 0 {
		t.Error("Expected weekday buckets for AAA-1")
	}
}

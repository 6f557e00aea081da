package router

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/cosinor/internal/config"
	"github.com/soltixdb/cosinor/internal/logging"
	"github.com/soltixdb/cosinor/internal/services"
)

func newTestRouter(t *testing.T, cfg *config.Config) *fiber.App {
	t.Helper()

	svc, err := services.NewAnalysisService(logging.NewNop(), cfg.Analysis, cfg.Ingest, nil)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	return New(logging.NewNop(), svc, *cfg)
}

func TestRouter_Routes(t *testing.T) {
	app := newTestRouter(t, config.DefaultConfig())

	tests := []struct {
		method   string
		path     string
		expected int
	}{
		{"GET", "/health", fiber.StatusOK},
		{"GET", "/v1/analyses", fiber.StatusOK},
		{"GET", "/v1/analyses/cosinor", fiber.StatusOK},
		{"GET", "/v1/analyses/unknown", fiber.StatusNotFound},
		{"GET", "/v1/databases", fiber.StatusNotFound},
	}

	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
		if err != nil {
			t.Fatalf("%s %s: %v", tt.method, tt.path, err)
		}
		if resp.StatusCode != tt.expected {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.expected, resp.StatusCode)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Errorf("%s %s: expected X-Request-ID header", tt.method, tt.path)
		}
	}
}

func TestRouter_Auth(t *testing.T) {
	key := strings.Repeat("k", 40)
	cfg := config.DefaultConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKeys = []string{key}
	app := newTestRouter(t, cfg)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("health should not require auth, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/analyses", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", resp.StatusCode)
	}

	req := httptest.NewRequest("GET", "/v1/analyses", nil)
	req.Header.Set("X-API-Key", key)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected 200 with key, got %d", resp.StatusCode)
	}
}

func TestRouter_BodyLimit(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.BodyLimitMB = 1
	app := newTestRouter(t, cfg)

	body := `{"x":[` + strings.Repeat("1,", 600000) + `1]}`
	req := httptest.NewRequest("POST", "/v1/regression", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", resp.StatusCode)
	}
}

package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func tokenTestApp() *fiber.App {
	app := fiber.New()
	app.Post("/api/activity", ServiceToken(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Activity tracked"})
	})
	return app
}

func TestServiceTokenRejectsMissingToken(t *testing.T) {
	t.Setenv("MIRROR_SERVICE_TOKEN", "sekret")
	app := tokenTestApp()

	resp, err := app.Test(httptest.NewRequest("POST", "/api/activity", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("missing token: expected 401, got %d", resp.StatusCode)
	}

	req := httptest.NewRequest("POST", "/api/activity", nil)
	req.Header.Set("X-Service-Token", "wrong")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("wrong token: expected 401, got %d", resp.StatusCode)
	}
}

func TestServiceTokenAcceptsMatchingToken(t *testing.T) {
	t.Setenv("MIRROR_SERVICE_TOKEN", "sekret")
	app := tokenTestApp()

	req := httptest.NewRequest("POST", "/api/activity", nil)
	req.Header.Set("X-Service-Token", "sekret")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("matching token: expected 200, got %d", resp.StatusCode)
	}
}

func TestServiceTokenOpenWhenUnset(t *testing.T) {
	t.Setenv("MIRROR_SERVICE_TOKEN", "")
	app := tokenTestApp()

	resp, err := app.Test(httptest.NewRequest("POST", "/api/activity", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("unset token: expected pass-through 200, got %d", resp.StatusCode)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "6f1c2b1e-8e8f-4d0a-9a43-2a0c8f1d7b11",
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Get("/mentor-only", Protected(testSecret), RoleRequired("mentor"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestProtectedRejectsMissingToken(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest(http.MethodGet, "/mentor-only", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestProtectedRejectsWrongSecret(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "mentor"})
	signed, _ := token.SignedString([]byte("other"))

	req := httptest.NewRequest(http.MethodGet, "/mentor-only", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := newApp().Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestRoleRequired(t *testing.T) {
	app := newApp()
	for role, want := range map[string]int{"mentor": fiber.StatusOK, "mentee": fiber.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/mentor-only", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, role))
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != want {
			t.Fatalf("role %s: status = %d, want %d", role, resp.StatusCode, want)
		}
	}
}

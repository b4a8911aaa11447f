package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/tickethub/internal/config"
	"github.com/example/tickethub/internal/utils"
)

func newTestApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(Language())

	app.Get("/me", AuthMiddleware(cfg), func(c *fiber.Ctx) error {
		id, ok := GetCurrentUserID(c)
		if !ok {
			return errors.New("no user in context")
		}
		return c.JSON(fiber.Map{"id": id.String(), "role": GetCurrentRole(c)})
	})
	app.Get("/admin", AuthMiddleware(cfg), RequireRoles("admin", "super-admin"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("database exploded")
	})
	return app
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return out
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	app := newTestApp(cfg)

	id := uuid.New()
	token, err := utils.GenerateToken(cfg.JWTSecret, id, "organizer", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	foreign, _ := utils.GenerateToken("another-secret", id, "admin", time.Hour)

	tests := []struct {
		name   string
		header string
		path   string
		want   int
	}{
		{"missing header", "", "/me", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, "/me", fiber.StatusUnauthorized},
		{"bad signature", "Bearer " + foreign, "/me", fiber.StatusUnauthorized},
		{"valid token", "Bearer " + token, "/me", fiber.StatusOK},
		{"lowercase scheme", "bearer " + token, "/me", fiber.StatusOK},
		{"role not allowed", "Bearer " + token, "/admin", fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ := app.Test(req)
	body := decode(t, resp)
	if body["id"] != id.String() || body["role"] != "organizer" {
		t.Errorf("context identity = %v", body)
	}

	admin, _ := utils.GenerateToken(cfg.JWTSecret, id, "admin", time.Hour)
	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	if resp, _ := app.Test(req); resp.StatusCode != fiber.StatusOK {
		t.Errorf("admin status = %d", resp.StatusCode)
	}
}

func TestErrorHandlerLocalizesAndHidesInternals(t *testing.T) {
	app := newTestApp(&config.Config{JWTSecret: "test-secret"})

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Accept-Language", "ar-EG,ar;q=0.9")
	resp, _ := app.Test(req)
	body := decode(t, resp)
	if body["success"] != false || body["message"] != utils.MsgUnauthorized.Ar {
		t.Errorf("arabic error = %v", body)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/boom", nil))
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Errorf("status = %d", resp.StatusCode)
	}
	body = decode(t, resp)
	if body["message"] != "internal server error" {
		t.Errorf("internal error leaked: %v", body)
	}
}

func TestParseLanguage(t *testing.T) {
	tests := map[string]string{
		"":                "en",
		"en-US,en;q=0.9":  "en",
		"AR":              "ar",
		" ar-SA":          "ar",
		"fr-FR, ar;q=0.5": "en",
	}
	for header, want := range tests {
		if got := parseLanguage(header); got != want {
			t.Errorf("parseLanguage(%q) = %q, want %q", header, got, want)
		}
	}
}

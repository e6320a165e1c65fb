package middleware

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hearthchat/api/database"
	"github.com/hearthchat/api/model"
)

func newAuthTestApp(t *testing.T) (*fiber.App, *database.MemoryStore) {
	t.Helper()
	store := database.NewMemoryStore()
	app := fiber.New()

	m := NewAuthMiddleware(store)
	app.Get("/protected", m.Required(), func(c *fiber.Ctx) error {
		id, _ := GetUserID(c)
		return c.JSON(fiber.Map{"user_id": id})
	})
	app.Get("/admin", m.Required(), m.RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	return app, store
}

func seedSession(t *testing.T, store *database.MemoryStore, token, role string, expiresAt time.Time) *model.User {
	t.Helper()
	ctx := context.Background()

	user := &model.User{
		Email:        token + "@example.com",
		PasswordHash: "x",
		Name:         "Test",
		Role:         role,
		Status:       model.StatusActive,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	session := &model.Session{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
	}
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return user
}

func TestRequiredValidToken(t *testing.T) {
	app, store := newAuthTestApp(t)
	user := seedSession(t, store, "abc123", model.RoleChild, time.Now().Add(time.Hour))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer abc123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		UserID uint `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.UserID != user.ID {
		t.Errorf("user_id = %d, want %d", body.UserID, user.ID)
	}
}

func TestRequiredMissingToken(t *testing.T) {
	app, _ := newAuthTestApp(t)

	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestRequiredUnknownToken(t *testing.T) {
	app, store := newAuthTestApp(t)
	seedSession(t, store, "abc123", model.RoleChild, time.Now().Add(time.Hour))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer abc124")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for near-miss token", resp.StatusCode)
	}
}

func TestRequiredExpiredToken(t *testing.T) {
	app, store := newAuthTestApp(t)
	seedSession(t, store, "expired1", model.RoleChild, time.Now().Add(-time.Minute))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer expired1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "Token has expired" {
		t.Errorf("error = %q, want expiry message", body.Error)
	}
}

func TestRequiredMalformedHeader(t *testing.T) {
	app, store := newAuthTestApp(t)
	seedSession(t, store, "abc123", model.RoleChild, time.Now().Add(time.Hour))

	for _, header := range []string{"abc123", "Basic abc123", "Bearer"} {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", header)

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, resp.StatusCode)
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	app, store := newAuthTestApp(t)
	seedSession(t, store, "childtok", model.RoleChild, time.Now().Add(time.Hour))
	seedSession(t, store, "admintok", model.RoleAdmin, time.Now().Add(time.Hour))

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer childtok")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("child status = %d, want 403", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer admintok")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("admin status = %d, want 200", resp.StatusCode)
	}
}

package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"botshop/internal/http/handlers"
	"botshop/internal/repos"
	"botshop/internal/services"
)

func testApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := repos.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	auth := &services.AuthService{Users: repos.NewUserRepo(db)}
	authH := &handlers.AuthHandler{Auth: auth}

	app := fiber.New()
	app.Post("/login", authH.Login)
	app.Post("/logout", authH.Logout)
	admin := app.Group("/admin", handlers.RequireAdmin(auth))
	admin.Get("/ping", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	return app
}

func login(t *testing.T, app *fiber.App, email, password string) *http.Response {
	t.Helper()
	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func sidCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			return c
		}
	}
	t.Fatal("no sid cookie set")
	return nil
}

func TestRequireAdmin_NoSession(t *testing.T) {
	app := testApp(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", resp.StatusCode)
	}
}

func TestRequireAdmin_UnknownSession(t *testing.T) {
	app := testApp(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "not-a-session"})
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("want 403, got %d", resp.StatusCode)
	}
}

func TestLoginThenAdminAccess(t *testing.T) {
	app := testApp(t)

	// seeded admin credentials
	resp := login(t, app, "admin@botshop.test", "ChangeMe1!")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: want 200, got %d", resp.StatusCode)
	}
	sid := sidCookie(t, resp)

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.AddCookie(sid)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin ping: want 200, got %d", resp.StatusCode)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	app := testApp(t)

	resp := login(t, app, "admin@botshop.test", "WrongPass1!")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", resp.StatusCode)
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	app := testApp(t)

	resp := login(t, app, "admin@botshop.test", "ChangeMe1!")
	sid := sidCookie(t, resp)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(sid)
	if _, err := app.Test(req, -1); err != nil {
		t.Fatal(err)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.AddCookie(sid)
	after, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if after.StatusCode != http.StatusForbidden {
		t.Fatalf("want 403 after logout, got %d", after.StatusCode)
	}
}

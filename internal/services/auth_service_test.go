package services_test

import (
	"context"
	"errors"
	"testing"

	"botshop/internal/repos"
	"botshop/internal/services"
)

func TestAuth_LoginAndSession(t *testing.T) {
	db := testdb(t)
	auth := &services.AuthService{Users: repos.NewUserRepo(db)}

	if _, err := auth.Login(context.Background(), "sid-1", "admin@botshop.test", "wrong"); !errors.Is(err, services.ErrBadCreds) {
		t.Fatalf("want ErrBadCreds, got %v", err)
	}
	if _, err := auth.Login(context.Background(), "sid-1", "nobody@botshop.test", "ChangeMe1!"); !errors.Is(err, services.ErrBadCreds) {
		t.Fatalf("want ErrBadCreds, got %v", err)
	}

	u, err := auth.Login(context.Background(), "sid-1", "admin@botshop.test", "ChangeMe1!")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != "ADMIN" {
		t.Fatalf("role: %s", u.Role)
	}

	got, err := auth.CurrentUser(context.Background(), "sid-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID {
		t.Fatalf("session user: want %s, got %s", u.ID, got.ID)
	}

	if err := auth.Logout(context.Background(), "sid-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := auth.CurrentUser(context.Background(), "sid-1"); err == nil {
		t.Fatal("session survived logout")
	}
}

func TestAuth_CurrentUserRefreshesLastSeen(t *testing.T) {
	db := testdb(t)
	auth := &services.AuthService{Users: repos.NewUserRepo(db)}

	if _, err := auth.Login(context.Background(), "sid-2", "admin@botshop.test", "ChangeMe1!"); err != nil {
		t.Fatal(err)
	}

	lastSeen := func() string {
		var s string
		if err := db.Get(&s, `SELECT last_seen FROM sessions WHERE id = 'sid-2'`); err != nil {
			t.Fatal(err)
		}
		return s
	}

	before := lastSeen()
	if _, err := auth.CurrentUser(context.Background(), "sid-2"); err != nil {
		t.Fatal(err)
	}
	// timestamps are fixed-width and sortable
	if after := lastSeen(); after <= before {
		t.Fatalf("last_seen not refreshed: %q -> %q", before, after)
	}
}

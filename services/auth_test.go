package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lchelper/hints_api/dto"
	"github.com/lchelper/hints_api/shared"
)

func newTestAuth(t *testing.T) (*AuthService, *SqliteService) {
	t.Helper()
	ds := newTestSqlite(t)
	jwtSvc := &JWTService{AccessTokenDuration: time.Hour, jwtSecretKey: "auth-test-secret"}
	subSvc := &SubscriptionService{sqlSvc: ds, maxFree: 10, maxPremium: 25, maxPro: 60}
	return &AuthService{sqlSvc: ds, jwtSvc: jwtSvc, subSvc: subSvc}, ds
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestAuth(t)

	reg, err := svc.Register(dto.RegisterRequest{Email: "Alice@Example.com", Password: "Sup3rSecret"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if reg.Email != "alice@example.com" {
		t.Errorf("stored email = %q, want lowercased", reg.Email)
	}

	login, err := svc.Login(dto.LoginRequest{Email: "alice@example.com", Password: "Sup3rSecret"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if login.AccessToken == "" {
		t.Error("login should return an access token")
	}
	if login.UserID != reg.UserID {
		t.Errorf("login user = %q, want %q", login.UserID, reg.UserID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuth(t)

	if _, err := svc.Register(dto.RegisterRequest{Email: "dup@example.com", Password: "Sup3rSecret"}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Register(dto.RegisterRequest{Email: "DUP@example.com", Password: "An0therPass"})
	if err == nil {
		t.Fatal("expected conflict for duplicate email")
	}
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 AppError, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestAuth(t)

	if _, err := svc.Register(dto.RegisterRequest{Email: "bob@example.com", Password: "Sup3rSecret"}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Login(dto.LoginRequest{Email: "bob@example.com", Password: "WrongPass1"})
	if err == nil {
		t.Fatal("expected unauthorized for wrong password")
	}
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 AppError, got %v", err)
	}

	// Unknown address gets the same answer as a wrong password.
	_, err = svc.Login(dto.LoginRequest{Email: "ghost@example.com", Password: "Sup3rSecret"})
	if err == nil {
		t.Fatal("expected unauthorized for unknown email")
	}
}

func TestRequiredAuthMiddleware(t *testing.T) {
	svc, _ := newTestAuth(t)

	reg, err := svc.Register(dto.RegisterRequest{Email: "mw@example.com", Password: "Sup3rSecret"})
	if err != nil {
		t.Fatal(err)
	}
	token, err := svc.jwtSvc.ToJWT(reg.UserID)
	if err != nil {
		t.Fatal(err)
	}

	app := fiber.New()
	app.Get("/whoami", svc.RequiredAuth(), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(shared.UserID).(string))
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authorized request: status = %d, want 200", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d, want 401", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer bogus.token.here")
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bogus token: status = %d, want 401", resp.StatusCode)
	}
}

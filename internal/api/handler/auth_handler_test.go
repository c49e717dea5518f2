package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/vartalang/vartalang-api/internal/api/middleware"
	"github.com/vartalang/vartalang-api/internal/core/domain"
	"github.com/vartalang/vartalang-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.AuthResult, error)
	refreshFn  func(ctx context.Context, token string) (domain.TokenPair, error)
	logoutFn   func(ctx context.Context, userID string) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Refresh(ctx context.Context, token string) (domain.TokenPair, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubAuthService) Logout(ctx context.Context, userID string) error {
	return s.logoutFn(ctx, userID)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

// authenticate mimics what the Auth middleware attaches.
func authenticate(c echo.Context, u *domain.User) {
	c.Set(middleware.ContextUser, u)
	c.Set(middleware.ContextUserID, u.ID)
	c.Set(middleware.ContextRole, u.Role)
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			if in.Name != "Asha" || in.Email != "asha@example.com" || in.Role != "admin" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.AuthResult{
				User:   &domain.User{ID: "u1", Name: in.Name, Email: in.Email, Role: domain.RoleStudent, PasswordHash: "secret-hash", RefreshTokenHash: "rt-hash"},
				Tokens: domain.TokenPair{AccessToken: "at", RefreshToken: "rt"},
			}, nil
		},
	}
	handler := NewAuthHandler(stub)

	req := jsonRequest(http.MethodPost, "/api/v1/auth/register", `{"name":"Asha","email":"asha@example.com","password":"Secret123","role":"admin"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	resp := decodeEnvelope(t, rec)
	if resp["success"] != true || resp["message"] != "Account created successfully!" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	data := resp["data"].(map[string]any)
	if data["accessToken"] != "at" || data["refreshToken"] != "rt" {
		t.Fatalf("tokens missing: %+v", data)
	}
	user := data["user"].(map[string]any)
	if user["role"] != "student" {
		t.Fatalf("unexpected role %v", user["role"])
	}
	body := rec.Body.String()
	if strings.Contains(body, "secret-hash") || strings.Contains(body, "rt-hash") {
		t.Fatal("credential hashes must never be serialised")
	}
}

func TestAuthHandler_Register_ServiceError(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			return nil, domain.ErrUserExists
		},
	}
	handler := NewAuthHandler(stub)

	req := jsonRequest(http.MethodPost, "/api/v1/auth/register", `{"name":"Bob","email":"b@example.com","password":"Secret123"}`)
	c := e.NewContext(req, httptest.NewRecorder())

	err := handler.Register(c)
	if domain.StatusOf(err) != http.StatusConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthHandler_Register_InvalidBody(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubAuthService{})

	req := jsonRequest(http.MethodPost, "/api/v1/auth/register", `{"name":`)
	c := e.NewContext(req, httptest.NewRecorder())

	if err := handler.Register(c); domain.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Register_PasswordTooLong(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubAuthService{})

	long := strings.Repeat("A1", 40)
	req := jsonRequest(http.MethodPost, "/api/v1/auth/register", `{"name":"Asha","email":"a@b.co","password":"`+long+`"}`)
	c := e.NewContext(req, httptest.NewRecorder())

	err := handler.Register(c)
	if domain.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if msg, _ := domain.MessageOf(err); !strings.Contains(msg, "password") {
		t.Errorf("expected message to name the field, got %q", msg)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.AuthResult, error) {
			if email != "asha@example.com" || password != "Secret123" {
				t.Fatalf("unexpected credentials %s/%s", email, password)
			}
			return &ports.AuthResult{User: &domain.User{ID: "u1"}, Tokens: domain.TokenPair{AccessToken: "at", RefreshToken: "rt"}}, nil
		},
	}
	handler := NewAuthHandler(stub)

	req := jsonRequest(http.MethodPost, "/api/v1/auth/login", `{"email":"asha@example.com","password":"Secret123"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decodeEnvelope(t, rec)
	if resp["message"] != "Login successful!" {
		t.Fatalf("unexpected envelope %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.AuthResult, error) {
			return nil, domain.NewError(domain.ErrInvalidCredentials, "Invalid email or password.")
		},
	}
	handler := NewAuthHandler(stub)

	req := jsonRequest(http.MethodPost, "/api/v1/auth/login", `{"email":"x@example.com","password":"nope"}`)
	c := e.NewContext(req, httptest.NewRecorder())

	if err := handler.Login(c); domain.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		refreshFn: func(ctx context.Context, token string) (domain.TokenPair, error) {
			if token != "old-rt" {
				t.Fatalf("unexpected token %q", token)
			}
			return domain.TokenPair{AccessToken: "new-at", RefreshToken: "new-rt"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	req := jsonRequest(http.MethodPost, "/api/v1/auth/refresh", `{"refreshToken":"old-rt"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["refreshToken"] != "new-rt" || data["accessToken"] != "new-at" {
		t.Fatalf("unexpected data %+v", data)
	}
}

func TestAuthHandler_LogoutAndMe(t *testing.T) {
	e := newTestEcho()
	var loggedOut string
	stub := &stubAuthService{
		logoutFn: func(ctx context.Context, userID string) error {
			loggedOut = userID
			return nil
		},
	}
	handler := NewAuthHandler(stub)
	user := &domain.User{ID: "u1", Name: "Asha", Role: domain.RoleStudent, IsActive: true}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), rec)
	authenticate(c, user)
	if err := handler.Logout(c); err != nil {
		t.Fatalf("logout error: %v", err)
	}
	if loggedOut != "u1" {
		t.Fatalf("expected logout of u1, got %q", loggedOut)
	}
	if decodeEnvelope(t, rec)["message"] != "Logged out successfully." {
		t.Fatal("unexpected logout message")
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), rec)
	authenticate(c, user)
	if err := handler.Me(c); err != nil {
		t.Fatalf("me error: %v", err)
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["user"].(map[string]any)["name"] != "Asha" {
		t.Fatalf("unexpected me payload %+v", data)
	}
}

func TestAuthHandler_Me_WithoutGuard(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubAuthService{})
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), httptest.NewRecorder())

	if err := handler.Me(c); domain.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

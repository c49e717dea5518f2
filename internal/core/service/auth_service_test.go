package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/vartalang/vartalang-api/internal/core/domain"
	"github.com/vartalang/vartalang-api/internal/core/ports"
)

func newAuthSvc(t *testing.T) (*AuthService, *stubUserRepo) {
	t.Helper()
	repo := newStubUserRepo()
	return NewAuthService(repo, newTokenManager(t), nopLogger), repo
}

func register(t *testing.T, svc *AuthService, email, role string) *ports.AuthResult {
	t.Helper()
	res, err := svc.Register(context.Background(), ports.RegisterInput{
		Name:     "Asha Rao",
		Email:    email,
		Password: "Secret123",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return res
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAuthService_Register_Success(t *testing.T) {
	svc, repo := newAuthSvc(t)

	res := register(t, svc, "  Asha@Example.com ", "instructor")

	if res.User.Email != "asha@example.com" {
		t.Errorf("expected normalised email, got %q", res.User.Email)
	}
	if res.User.Role != domain.RoleInstructor {
		t.Errorf("expected instructor role, got %q", res.User.Role)
	}
	if !res.User.IsActive {
		t.Error("new users must be active")
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}

	stored := repo.get(res.User.ID)
	if stored.PasswordHash == "Secret123" {
		t.Fatal("password stored in clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Secret123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if stored.RefreshTokenHash != hashToken(res.Tokens.RefreshToken) {
		t.Error("refresh token hash not persisted")
	}
}

func TestAuthService_Register_AdminRequestBecomesStudent(t *testing.T) {
	svc, _ := newAuthSvc(t)

	for _, role := range []string{"admin", "superuser", ""} {
		res := register(t, svc, role+"x@example.com", role)
		if res.User.Role != domain.RoleStudent {
			t.Errorf("requested %q: expected student, got %q", role, res.User.Role)
		}
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, repo := newAuthSvc(t)

	cases := []struct {
		name    string
		input   ports.RegisterInput
		message string
	}{
		{"missing name", ports.RegisterInput{Email: "a@b.co", Password: "Secret123"}, "Name, email, and password are required."},
		{"missing email", ports.RegisterInput{Name: "Asha", Password: "Secret123"}, "Name, email, and password are required."},
		{"missing password", ports.RegisterInput{Name: "Asha", Email: "a@b.co"}, "Name, email, and password are required."},
		{"short password", ports.RegisterInput{Name: "Asha", Email: "a@b.co", Password: "Ab1"}, "Password must be at least 8 characters."},
		{"no uppercase", ports.RegisterInput{Name: "Asha", Email: "a@b.co", Password: "secret123"}, "Password must contain at least one uppercase letter and one number."},
		{"no digit", ports.RegisterInput{Name: "Asha", Email: "a@b.co", Password: "SecretPass"}, "Password must contain at least one uppercase letter and one number."},
		{"bad email", ports.RegisterInput{Name: "Asha", Email: "not-an-email", Password: "Secret123"}, "Please enter a valid email."},
		{"short name", ports.RegisterInput{Name: "A", Email: "a@b.co", Password: "Secret123"}, "Name must be at least 2 characters."},
		{"multibyte password over bcrypt limit", ports.RegisterInput{Name: "Asha", Email: "a@b.co", Password: "A1" + strings.Repeat("é", 70)}, "Password cannot exceed 72 bytes."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.input)
			assertKind(t, err, domain.ErrValidation)
			if msg, _ := domain.MessageOf(err); msg != tc.message {
				t.Errorf("expected message %q, got %q", tc.message, msg)
			}
		})
	}

	if users, _ := repo.List(context.Background()); len(users) != 0 {
		t.Fatalf("rejected registrations must not persist, got %d users", len(users))
	}
}

func TestAuthService_Register_DuplicateEmailAnyCase(t *testing.T) {
	svc, _ := newAuthSvc(t)
	register(t, svc, "asha@example.com", "student")

	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "Other", Email: "ASHA@Example.COM", Password: "Secret123",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if domain.StatusOf(err) != 409 {
		t.Errorf("expected 409, got %d", domain.StatusOf(err))
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAuthService_Login_Success(t *testing.T) {
	svc, repo := newAuthSvc(t)
	reg := register(t, svc, "asha@example.com", "student")

	res, err := svc.Login(context.Background(), "ASHA@example.com", "Secret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.User.ID != reg.User.ID {
		t.Errorf("unexpected user %q", res.User.ID)
	}
	if res.User.LastLogin == nil {
		t.Error("expected lastLogin to be set")
	}

	stored := repo.get(reg.User.ID)
	if stored.RefreshTokenHash != hashToken(res.Tokens.RefreshToken) {
		t.Error("login must overwrite the stored refresh token")
	}
	if stored.LastLogin == nil {
		t.Error("lastLogin not persisted")
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newAuthSvc(t)
	register(t, svc, "asha@example.com", "student")

	_, unknownErr := svc.Login(context.Background(), "nobody@example.com", "Secret123")
	_, wrongErr := svc.Login(context.Background(), "asha@example.com", "Wrong1234")

	for _, err := range []error{unknownErr, wrongErr} {
		assertKind(t, err, domain.ErrInvalidCredentials)
		if domain.StatusOf(err) != 401 {
			t.Errorf("expected 401, got %d", domain.StatusOf(err))
		}
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Errorf("messages differ: %q vs %q", unknownErr, wrongErr)
	}
}

func TestAuthService_Login_MissingFields(t *testing.T) {
	svc, _ := newAuthSvc(t)

	_, err := svc.Login(context.Background(), "", "Secret123")
	assertKind(t, err, domain.ErrValidation)

	_, err = svc.Login(context.Background(), "asha@example.com", "")
	assertKind(t, err, domain.ErrValidation)
}

func TestAuthService_Login_Deactivated(t *testing.T) {
	svc, repo := newAuthSvc(t)
	reg := register(t, svc, "asha@example.com", "student")
	if _, err := repo.SetActive(context.Background(), reg.User.ID, false); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Login(context.Background(), "asha@example.com", "Secret123")
	assertKind(t, err, domain.ErrAccountDisabled)
	if domain.StatusOf(err) != 403 {
		t.Errorf("expected 403, got %d", domain.StatusOf(err))
	}
}

func TestAuthService_Login_RepoError(t *testing.T) {
	svc, repo := newAuthSvc(t)
	repo.findErr = errors.New("mongo down")

	_, err := svc.Login(context.Background(), "asha@example.com", "Secret123")
	if err == nil || domain.StatusOf(err) != 500 {
		t.Fatalf("expected internal error, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Refresh / Logout
// ---------------------------------------------------------------------------

func TestAuthService_Refresh_Rotates(t *testing.T) {
	svc, _ := newAuthSvc(t)
	reg := register(t, svc, "asha@example.com", "student")

	pair, err := svc.Refresh(context.Background(), reg.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if pair.RefreshToken == reg.Tokens.RefreshToken {
		t.Fatal("expected a new refresh token")
	}

	// The rotated-out token is dead.
	_, err = svc.Refresh(context.Background(), reg.Tokens.RefreshToken)
	assertKind(t, err, domain.ErrInvalidToken)

	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("new refresh token rejected: %v", err)
	}
}

func TestAuthService_Refresh_AfterLogout(t *testing.T) {
	svc, repo := newAuthSvc(t)
	reg := register(t, svc, "asha@example.com", "student")

	if err := svc.Logout(context.Background(), reg.User.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if repo.get(reg.User.ID).RefreshTokenHash != "" {
		t.Fatal("logout must clear the stored refresh token")
	}

	_, err := svc.Refresh(context.Background(), reg.Tokens.RefreshToken)
	if domain.StatusOf(err) != 401 {
		t.Fatalf("expected 401 after logout, got %v", err)
	}

	// Logout is idempotent.
	if err := svc.Logout(context.Background(), reg.User.ID); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestAuthService_Refresh_Rejections(t *testing.T) {
	svc, repo := newAuthSvc(t)
	reg := register(t, svc, "asha@example.com", "student")

	_, err := svc.Refresh(context.Background(), "")
	assertKind(t, err, domain.ErrUnauthenticated)

	_, err = svc.Refresh(context.Background(), "not.a.jwt")
	assertKind(t, err, domain.ErrInvalidToken)

	// An access token is not a refresh token.
	_, err = svc.Refresh(context.Background(), reg.Tokens.AccessToken)
	assertKind(t, err, domain.ErrInvalidToken)

	if err := repo.Delete(context.Background(), reg.User.ID); err != nil {
		t.Fatal(err)
	}
	_, err = svc.Refresh(context.Background(), reg.Tokens.RefreshToken)
	assertKind(t, err, domain.ErrInvalidToken)
	if msg, _ := domain.MessageOf(err); !strings.Contains(msg, "refresh token") {
		t.Errorf("unexpected message %q", msg)
	}
}

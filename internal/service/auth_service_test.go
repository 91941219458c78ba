package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/campstack/campstack/internal/auth"
	"github.com/campstack/campstack/internal/domain"
)

func newAuthService() (*AuthService, *MockUserRepository, *MockMailer) {
	repos, _, _, _, users := testRepos()
	mailer := &MockMailer{}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := NewAuthService(repos, tokens, mailer, zerolog.Nop())
	return svc, users, mailer
}

func registerInput() RegisterInput {
	return RegisterInput{
		Name:     "Dev Eloper",
		Email:    "dev@example.com",
		Password: "hunter22",
		Role:     domain.RolePublisher,
	}
}

func TestAuthService_Register(t *testing.T) {
	svc, _, _ := newAuthService()

	session, err := svc.Register(context.Background(), registerInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if session.Token == "" {
		t.Error("Register() returned empty token")
	}
	if session.User.Role != domain.RolePublisher {
		t.Errorf("Role = %q", session.User.Role)
	}
	if session.User.PasswordHash == "hunter22" {
		t.Error("password stored in plaintext")
	}
}

func TestAuthService_RegisterDefaultsRole(t *testing.T) {
	svc, _, _ := newAuthService()

	input := registerInput()
	input.Role = ""
	session, err := svc.Register(context.Background(), input)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if session.User.Role != domain.RoleUser {
		t.Errorf("Role = %q, want user", session.User.Role)
	}
}

func TestAuthService_RegisterRejectsAdminRole(t *testing.T) {
	svc, _, _ := newAuthService()

	input := registerInput()
	input.Role = domain.RoleAdmin
	if _, err := svc.Register(context.Background(), input); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Register() error = %v, want ErrValidation", err)
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerInput()); err != nil {
		t.Fatalf("Register() first error = %v", err)
	}
	if _, err := svc.Register(ctx, registerInput()); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Errorf("Register() second error = %v, want ErrDuplicateEmail", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerInput()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid", email: "dev@example.com", password: "hunter22"},
		{name: "case-insensitive email", email: "DEV@Example.com", password: "hunter22"},
		{name: "wrong password", email: "dev@example.com", password: "nope", wantErr: domain.ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@example.com", password: "hunter22", wantErr: domain.ErrInvalidCredentials},
		{name: "missing fields", email: "", password: "", wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.Login(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Login() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if session.Token == "" {
				t.Error("Login() returned empty token")
			}
		})
	}
}

func TestAuthService_UpdatePassword(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	session, err := svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := svc.UpdatePassword(ctx, session.User, "wrong", "newpassword"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("UpdatePassword() with wrong current error = %v, want ErrInvalidCredentials", err)
	}

	if _, err := svc.UpdatePassword(ctx, session.User, "hunter22", "newpassword"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	if _, err := svc.Login(ctx, "dev@example.com", "newpassword"); err != nil {
		t.Errorf("Login() with new password error = %v", err)
	}
	if _, err := svc.Login(ctx, "dev@example.com", "hunter22"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Login() with old password error = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthService_ForgotAndResetPassword(t *testing.T) {
	svc, users, mailer := newAuthService()
	ctx := context.Background()

	session, err := svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := svc.ForgotPassword(ctx, "dev@example.com", "https://campstack.dev/api/v1/auth/resetpassword"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mailer.sent))
	}

	// The plaintext token is the last path segment of the emailed link.
	body := mailer.sent[0].Body
	token := body[strings.LastIndexByte(body, '/')+1:]
	if len(token) != 40 {
		t.Fatalf("token length = %d, want 40 hex chars", len(token))
	}

	// The stored form must be the hash, not the plaintext.
	stored, _ := users.GetByID(ctx, session.User.ID)
	if stored.ResetPasswordToken == token {
		t.Error("reset token stored in plaintext")
	}

	newSession, err := svc.ResetPassword(ctx, token, "resetpass1")
	if err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}
	if newSession.Token == "" {
		t.Error("ResetPassword() returned empty token")
	}

	// Token is single-use.
	if _, err := svc.ResetPassword(ctx, token, "resetpass2"); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Errorf("ResetPassword() reuse error = %v, want ErrResetTokenInvalid", err)
	}

	if _, err := svc.Login(ctx, "dev@example.com", "resetpass1"); err != nil {
		t.Errorf("Login() after reset error = %v", err)
	}
}

func TestAuthService_ResetPasswordExpiredToken(t *testing.T) {
	svc, _, mailer := newAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerInput()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := svc.ForgotPassword(ctx, "dev@example.com", "https://campstack.dev/reset"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}

	body := mailer.sent[0].Body
	token := body[strings.LastIndexByte(body, '/')+1:]

	// Jump past the token lifetime.
	svc.now = func() time.Time { return time.Now().Add(resetTokenTTL + time.Minute) }

	if _, err := svc.ResetPassword(ctx, token, "resetpass1"); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Errorf("ResetPassword() expired error = %v, want ErrResetTokenInvalid", err)
	}
}

func TestAuthService_ForgotPasswordUnknownEmail(t *testing.T) {
	svc, _, _ := newAuthService()

	err := svc.ForgotPassword(context.Background(), "ghost@example.com", "https://campstack.dev/reset")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("ForgotPassword() error = %v, want ErrUserNotFound", err)
	}
}

func TestAuthService_ForgotPasswordMailFailureClearsToken(t *testing.T) {
	svc, users, mailer := newAuthService()
	mailer.sendErr = errors.New("smtp down")
	ctx := context.Background()

	session, err := svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := svc.ForgotPassword(ctx, "dev@example.com", "https://campstack.dev/reset"); !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("ForgotPassword() error = %v, want ErrInternal", err)
	}

	stored, _ := users.GetByID(ctx, session.User.ID)
	if stored.ResetPasswordToken != "" || stored.ResetPasswordExpire != nil {
		t.Error("reset token should be cleared when the email fails")
	}
}

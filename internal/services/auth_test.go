package services

import (
	"testing"
	"time"

	"github.com/oelv/crm-funnel-backend/internal/platform/apierr"
)

func newTestAuthService(t *testing.T) AuthService {
	t.Helper()
	hash, err := HashPassword("正确密码")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	svc, err := NewAuthService(testLogger(t), AuthConfig{
		PasswordHash: hash,
		JWTSecretKey: "test-secret",
		AccessTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return svc
}

func TestLoginAndValidate(t *testing.T) {
	svc := newTestAuthService(t)

	token, expiresAt, err := svc.Login("正确密码")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}
	if until := time.Until(expiresAt); until < 59*time.Minute || until > time.Hour {
		t.Fatalf("unexpected expiry: %v", expiresAt)
	}

	principal, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if principal.Role != "dashboard" || principal.SessionID == "" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(t)
	_, _, err := svc.Login("错误密码")
	if apierr.StatusOf(err) != 401 || apierr.CodeOf(err) != "invalid_password" {
		t.Fatalf("expected 401 invalid_password, got %v", err)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(t)
	if _, err := svc.ValidateToken("not-a-token"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	a := newTestAuthService(t)

	hash, _ := HashPassword("p")
	other, err := NewAuthService(testLogger(t), AuthConfig{
		PasswordHash: hash,
		JWTSecretKey: "different-secret",
		AccessTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	token, _, err := other.Login("p")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := a.ValidateToken(token); apierr.StatusOf(err) != 401 {
		t.Fatalf("expected 401 for token signed with another secret, got %v", err)
	}
}

func TestNewAuthServiceRequiresConfig(t *testing.T) {
	if _, err := NewAuthService(testLogger(t), AuthConfig{JWTSecretKey: "s"}); err == nil {
		t.Fatalf("expected error without password hash")
	}
	if _, err := NewAuthService(testLogger(t), AuthConfig{PasswordHash: "h"}); err == nil {
		t.Fatalf("expected error without jwt secret")
	}
}

package services

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/oelv/crm-funnel-backend/internal/platform/apierr"
	"github.com/oelv/crm-funnel-backend/internal/platform/ctxutil"
	"github.com/oelv/crm-funnel-backend/internal/platform/logger"
)

// AuthService gates the dashboard behind a shared operator password and
// hands out short-lived session tokens.
type AuthService interface {
	Login(password string) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*ctxutil.Principal, error)
}

type AuthConfig struct {
	// PasswordHash is the bcrypt hash of the dashboard password.
	PasswordHash string
	JWTSecretKey string
	AccessTTL    time.Duration
}

type authService struct {
	log *logger.Logger
	cfg AuthConfig
	now func() time.Time
}

func NewAuthService(log *logger.Logger, cfg AuthConfig) (AuthService, error) {
	if cfg.PasswordHash == "" {
		return nil, fmt.Errorf("dashboard password hash not configured")
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("jwt secret not configured")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	return &authService{
		log: log.With("service", "AuthService"),
		cfg: cfg,
		now: time.Now,
	}, nil
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) Login(password string) (string, time.Time, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, apierr.New(http.StatusUnauthorized, "invalid_password", fmt.Errorf("password mismatch"))
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	claims := sessionClaims{
		SessionID: uuid.New().String(),
		Role:      "dashboard",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	s.log.Info("dashboard login", "session_id", claims.SessionID)
	return token, expiresAt, nil
}

func (s *authService) ValidateToken(tokenString string) (*ctxutil.Principal, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, apierr.New(http.StatusUnauthorized, "invalid_token", err)
	}
	return &ctxutil.Principal{SessionID: claims.SessionID, Role: claims.Role}, nil
}

// HashPassword is used by ops tooling to derive PasswordHash values.
func HashPassword(plain string) (string, error) {
	raw, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kendall-kelly/restaurant-pos-api/config"
	"github.com/kendall-kelly/restaurant-pos-api/models"
	"github.com/kendall-kelly/restaurant-pos-api/repository"
	"golang.org/x/crypto/bcrypt"
)

// AdminUsername is the account seeded from ADMIN_PASSWORD
const AdminUsername = "admin"

// AdminClaims are the claims carried by an admin token
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Token is an issued admin bearer token
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthService checks admin passwords and issues HS256 bearer tokens
type AuthService struct {
	users    repository.UserStore
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates an auth service using the token settings in cfg
func NewAuthService(users repository.UserStore, cfg *config.Config, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.TokenIssuer,
		audience: cfg.TokenAudience,
		ttl:      cfg.TokenTTL,
		logger:   logger.With("component", "auth"),
		now:      time.Now,
	}
}

// EnsureAdmin creates the admin user, or resets its password when it no
// longer matches
func (s *AuthService) EnsureAdmin(ctx context.Context, password string) error {
	if password == "" {
		return &ValidationError{Field: "password", Message: "is required"}
	}

	existing, err := s.users.GetUserByUsername(ctx, AdminUsername)
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(password)) == nil {
			return nil
		}
	case errors.Is(err, repository.ErrNotFound):
	default:
		return fmt.Errorf("failed to load admin user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     AdminUsername,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := s.users.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save admin user: %w", err)
	}

	s.logger.Info("admin user provisioned", "user_id", user.ID)
	return nil
}

// Login verifies a password and returns a signed token. Unknown users and
// wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Token, error) {
	if username == "" {
		username = AdminUsername
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("login rejected", "username", username, "reason", "unknown user")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("login rejected", "username", username, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*Token, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)

	claims := AdminClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Username,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Token{Token: signed, ExpiresAt: expiresAt.Truncate(time.Second)}, nil
}

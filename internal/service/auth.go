package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicsite/clinicsite/internal/model"
	"github.com/clinicsite/clinicsite/internal/session"
	"github.com/clinicsite/clinicsite/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrNoSession          = errors.New("no session")
)

// DefaultSessionTTL is how long an admin session cookie stays valid.
const DefaultSessionTTL = 12 * time.Hour

// MinPasswordLength applies to passwords set through the admin CLI.
const MinPasswordLength = 8

// AdminReader is the part of the store the auth service needs.
type AdminReader interface {
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
}

// AuthConfig configures session signing.
type AuthConfig struct {
	Secret     string
	SessionTTL time.Duration
	Issuer     string
	Revoker    session.Revoker
}

// SessionClaims is the payload of the admin session token. Subject is the
// admin id and ID (jti) identifies the session for revocation.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type AuthService struct {
	admins  AdminReader
	secret  []byte
	ttl     time.Duration
	issuer  string
	revoker session.Revoker
	now     func() time.Time
}

func NewAuthService(admins AdminReader, cfg AuthConfig) *AuthService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "clinicsite"
	}
	if cfg.Revoker == nil {
		cfg.Revoker = session.NoopRevoker{}
	}
	return &AuthService{
		admins:  admins,
		secret:  []byte(cfg.Secret),
		ttl:     cfg.SessionTTL,
		issuer:  cfg.Issuer,
		revoker: cfg.Revoker,
		now:     time.Now,
	}
}

// SessionTTL returns the configured session lifetime.
func (s *AuthService) SessionTTL() time.Duration {
	return s.ttl
}

// Authenticate looks the admin up by email and checks the password.
// Unknown email and wrong password both yield ErrInvalidCredentials; an
// inactive account yields ErrAccountDisabled. Anything else is a store
// failure.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.Admin, error) {
	admin, err := s.admins.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup admin: %w", err)
	}
	if !admin.IsActive {
		return nil, ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return admin, nil
}

// Login authenticates and, on success, issues a signed session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *SessionClaims, error) {
	admin, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	return s.IssueSession(ctx, admin)
}

// IssueSession signs a new HS256 session token for admin.
func (s *AuthService) IssueSession(ctx context.Context, admin *model.Admin) (string, *SessionClaims, error) {
	jti, err := uuid.NewV7()
	if err != nil {
		return "", nil, fmt.Errorf("generate session id: %w", err)
	}
	now := s.now()
	claims := &SessionClaims{
		Email: admin.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			ID:        jti.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}
	return signed, claims, nil
}

// ValidateSession verifies signature, issuer and expiry, then consults the
// revocation list. Every rejection is reported as ErrNoSession except a
// revocation backend failure, which is returned wrapped so callers can log
// it; callers still treat it as no session.
func (s *AuthService) ValidateSession(ctx context.Context, tokenStr string) (*SessionClaims, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return nil, ErrNoSession
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrNoSession
	}
	return claims, nil
}

// RevokeSession adds the token's jti to the revocation list until the
// token's own expiry. Invalid or already expired tokens are ignored.
func (s *AuthService) RevokeSession(ctx context.Context, tokenStr string) error {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	return s.revoker.Revoke(ctx, claims.ID, ttl)
}

func (s *AuthService) parse(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrNoSession
	}
	return claims, nil
}

// HashPassword returns the bcrypt hash stored in admin_users.password_hash.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

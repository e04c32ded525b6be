package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"medbank/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService issues and validates user tokens. Real identity lives in
// an external provider; this service only stamps userID/tenantID onto
// requests so jobs can carry ownership.
type AuthService struct {
	jwtSecret       []byte
	defaultTenantID string
}

// NewAuthService creates a new auth service.
func NewAuthService(jwtSecret, defaultTenantID string) *AuthService {
	return &AuthService{
		jwtSecret:       []byte(jwtSecret),
		defaultTenantID: defaultTenantID,
	}
}

// Login issues a token for the given user name. Tenant defaults when
// not supplied.
func (s *AuthService) Login(name, tenantID string) (*model.LoginResponse, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}
	if tenantID == "" {
		tenantID = s.defaultTenantID
	}

	userID := "user_" + uuid.New().String()[:8]

	claims := &model.UserClaims{
		UserID:   userID,
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(30 * 24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:    tokenString,
		UserID:   userID,
		TenantID: tenantID,
	}, nil
}

// ValidateToken validates a user JWT and returns its claims.
func (s *AuthService) ValidateToken(tokenString string) (*model.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

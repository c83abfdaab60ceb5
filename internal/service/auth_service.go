package service

import (
	"errors"
	"os"
	"time"

	"prepdeck/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService supplies the acting user's identity. Account management
// itself lives elsewhere; the engine only needs a verified user id.
type AuthService struct {
	username  string
	password  string
	jwtSecret []byte
}

// NewAuthService creates a new auth service
func NewAuthService() *AuthService {
	username := os.Getenv("AUTH_USERNAME")
	if username == "" {
		username = "learner"
	}
	password := os.Getenv("AUTH_PASSWORD")
	if password == "" {
		password = "password123"
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "super-secret-key-change-in-production"
	}

	return &AuthService{
		username:  username,
		password:  password,
		jwtSecret: []byte(secret),
	}
}

// Login validates credentials and returns a session-scoped token
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	if username != s.username || password != s.password {
		return nil, ErrInvalidCredentials
	}

	userID := "user_" + uuid.New().String()[:8]

	claims := &model.UserClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:  tokenString,
		UserID: userID,
	}, nil
}

// ValidateToken validates a user JWT and returns its claims
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

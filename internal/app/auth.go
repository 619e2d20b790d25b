package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"hotel_pms/internal/domain"
	"hotel_pms/internal/validation"
)

const minPasswordLen = 8

type AuthService struct {
	users  domain.UserRepository
	secret []byte
	ttl    time.Duration
	Now    func() time.Time
}

func NewAuthService(u domain.UserRepository, secret string, ttl time.Duration) *AuthService {
	return &AuthService{users: u, secret: []byte(secret), ttl: ttl, Now: time.Now}
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (s *AuthService) CreateUser(ctx context.Context, email, name string, role domain.Role, password string) (domain.User, error) {
	ve := domain.NewValidationError()
	email = strings.ToLower(strings.TrimSpace(email))
	if !validation.Email(email) {
		ve.Add("email", "must be a valid email address")
	}
	if strings.TrimSpace(name) == "" {
		ve.Add("name", "required")
	}
	if !role.Valid() {
		ve.Add("role", "unknown role")
	}
	if len(password) < minPasswordLen {
		ve.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	if err := ve.OrNil(); err != nil {
		return domain.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         role,
		PasswordHash: string(hash),
		Active:       true,
		CreatedAt:    s.Now().UTC(),
	}
	id, err := s.users.CreateUser(ctx, u)
	if err != nil {
		return domain.User{}, err
	}
	u.ID = id
	return u, nil
}

// Login checks the credentials and issues a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.User{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	if err != nil {
		return "", domain.User{}, err
	}
	if !u.Active || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", domain.User{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	tok, err := s.Issue(u)
	if err != nil {
		return "", domain.User{}, err
	}
	return tok, u, nil
}

func (s *AuthService) Issue(u domain.User) (string, error) {
	now := s.Now()
	c := claims{
		Email: u.Email,
		Role:  string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// Parse verifies a token and returns its principal.
func (s *AuthService) Parse(token string) (domain.Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.Now),
	)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: bad subject", domain.ErrUnauthorized)
	}
	return domain.Principal{UserID: id, Email: c.Email, Role: domain.Role(c.Role)}, nil
}

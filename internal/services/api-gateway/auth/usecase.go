package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/NordCoder/checkin/internal/domain/user"
	"github.com/NordCoder/checkin/internal/repository/postgres"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

const issuer = "checkin/api-gateway"

type Config struct {
	Secret    []byte
	AccessTTL time.Duration
	Now       func() time.Time
}

type Usecase struct {
	users user.Repo
	cfg   Config
}

func NewUseCase(users user.Repo, cfg Config) *Usecase {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	return &Usecase{users: users, cfg: cfg}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SignIn checks the password and returns a signed access token.
func (u *Usecase) SignIn(ctx context.Context, email, password string) (*user.User, string, error) {
	rec, err := u.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, postgres.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	access, err := u.IssueAccess(rec.ID)
	if err != nil {
		return nil, "", err
	}
	return rec, access, nil
}

func (u *Usecase) IssueAccess(userID string) (string, error) {
	now := u.cfg.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(u.cfg.AccessTTL)),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign access: %w", err)
	}
	return s, nil
}

// ParseAccess validates an access token and returns its subject.
func (u *Usecase) ParseAccess(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return u.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(u.cfg.Now),
	)
	if err != nil || claims.Subject == "" {
		return "", ErrInvalidCredentials
	}
	return claims.Subject, nil
}

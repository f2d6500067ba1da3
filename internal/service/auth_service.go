package service

import (
	"context"
	"errors"
	"strings"

	"puglands_server/internal/domain"
	"puglands_server/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// AuthService owns the signup/login boundary. Everything past it works with
// a resolved uid only.
type AuthService struct {
	users *repository.UserRepository
}

func NewAuthService(db *pgxpool.Pool) *AuthService {
	return &AuthService{users: repository.NewUserRepository(db)}
}

// Signup creates a user with the starting balance grant and returns a session
// token. Email is unique; a duplicate surfaces as Conflict.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || email == "" || !strings.Contains(email, "@") {
		return nil, "", domain.ErrInvalidArgument
	}
	if len(password) < 8 || len(password) > 128 {
		return nil, "", domain.ErrInvalidArgument
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	u := &domain.User{Name: name, Email: email}
	if err := s.users.Create(ctx, u, string(hash)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, "", domain.ErrConflict
		}
		return nil, "", err
	}

	token, err := GenerateJWT(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login authenticates an email/password pair and returns a session token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, hash, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrNotAuthenticated
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, "", domain.ErrNotAuthenticated
	}

	token, err := GenerateJWT(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/brokerledger/brokerledger/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo   RepositoryPort
	tokens *TokenStore
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, tokens *TokenStore) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Login validates credentials and issues a bearer token. Unknown accounts,
// wrong passwords and deactivated accounts all come back as ErrUnauthorized
// so responses never reveal which check failed.
func (s *Service) Login(ctx context.Context, email, password string) (string, Identity, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", Identity{}, shared.ErrUnauthorized
	}
	if !user.IsActive {
		return "", Identity{}, shared.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", Identity{}, shared.ErrUnauthorized
	}

	id := Identity{UserID: user.ID, Email: user.Email, Role: user.Role}
	token, err := s.tokens.Issue(ctx, id)
	if err != nil {
		return "", Identity{}, err
	}
	return token, id, nil
}

// Logout revokes the presented token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// Register creates an account with a bcrypt-hashed password. Admin only,
// enforced at the route level.
func (s *Service) Register(ctx context.Context, email, password string, role Role) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, shared.Invalid("email", "email is required")
	}
	if len(password) < 8 {
		return nil, shared.Invalid("password", "password must be at least 8 characters")
	}
	if !role.Valid() {
		return nil, shared.Invalid("role", "unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, &User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	})
}

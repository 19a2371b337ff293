package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wiseman-psychedelics/wiseman-api/internal/shared"
	"github.com/wiseman-psychedelics/wiseman-api/internal/users"
)

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer signs bearer tokens for a subject.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// Service wraps registration and login rules.
type Service struct {
	directory users.Directory
	hasher    PasswordHasher
	tokens    TokenIssuer

	decoyOnce sync.Once
	decoyHash string
}

// NewService constructs a new Service.
func NewService(directory users.Directory, hasher PasswordHasher, tokens TokenIssuer) *Service {
	return &Service{directory: directory, hasher: hasher, tokens: tokens}
}

// Register creates the account and returns a token for it. Email
// uniqueness is left to the directory; a collision surfaces as
// shared.ErrDuplicateEmail.
func (s *Service) Register(ctx context.Context, in RegisterInput) (TokenResponse, error) {
	if err := CheckPasswordLength(in.Password); err != nil {
		return TokenResponse{}, err
	}
	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return TokenResponse{}, err
	}
	age := 0
	if in.Age != nil {
		age = *in.Age
	}
	created, err := s.directory.Insert(ctx, users.User{
		Name:         in.Name,
		Age:          age,
		Email:        in.Email,
		PasswordHash: hashed,
		Phone:        in.Phone,
		Street:       in.Street,
		City:         in.City,
		State:        in.State,
		Zip:          in.Zip,
		Country:      in.Country,
		IsSubscribed: in.IsSubscribed,
	})
	if err != nil {
		return TokenResponse{}, err
	}
	return s.issue(created.Email)
}

// Login validates email/password credentials and returns a fresh token.
func (s *Service) Login(ctx context.Context, in LoginInput) (TokenResponse, error) {
	user, err := s.directory.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// Burn a comparison so unknown emails cost the same as wrong passwords.
			s.hasher.Verify(in.Password, s.decoy())
			return TokenResponse{}, shared.ErrInvalidCredentials
		}
		return TokenResponse{}, err
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return TokenResponse{}, shared.ErrInvalidCredentials
	}
	return s.issue(user.Email)
}

func (s *Service) issue(subject string) (TokenResponse, error) {
	token, err := s.tokens.Issue(subject)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("auth: issue token: %w", err)
	}
	return TokenResponse{AccessToken: token, TokenType: TokenType}, nil
}

func (s *Service) decoy() string {
	s.decoyOnce.Do(func() {
		s.decoyHash, _ = s.hasher.Hash("wiseman-decoy-password")
	})
	return s.decoyHash
}

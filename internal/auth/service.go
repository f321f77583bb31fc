package auth

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/atiohaidar/todolist/internal/model"
	"github.com/atiohaidar/todolist/internal/store"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const minPasswordLength = 6

// Service orchestrates registration and login over the user store, the
// password hasher, and the token issuer.
type Service struct {
	users  *store.UserStore
	tokens *TokenIssuer
	logger *slog.Logger
}

func NewService(users *store.UserStore, tokens *TokenIssuer, logger *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Register creates a new account and returns it with a fresh session token.
// Input is validated before any storage access.
func (s *Service) Register(username, password string) (*model.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < minPasswordLength {
		return nil, "", ErrInvalidInput
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.Create(username, hash)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, "", ErrDuplicateUsername
		}
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login verifies credentials and issues a session token. An unknown username
// and a wrong password both return ErrInvalidCredentials so the two cases are
// indistinguishable to the caller.
func (s *Service) Login(username, password string) (*model.User, string, error) {
	user, err := s.users.GetByUsername(username)
	if err != nil {
		return nil, "", err
	}
	if user == nil || !VerifyPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

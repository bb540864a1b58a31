package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cervicare-server/internal/auth"
	"cervicare-server/internal/domain"
	"cervicare-server/internal/repository"
)

var (
	// ErrMissingField indicates a required signup/login field was empty.
	ErrMissingField = errors.New("email and password required")
	// ErrUserAlreadyExists is returned when signing up with a taken email.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials indicates a failed login. Unknown email and wrong
	// password deliberately produce the same error.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when an authenticated user's record is gone.
	ErrUserNotFound = errors.New("user not found")
)

// passwordCost matches bcrypt's default of 10 rounds.
const passwordCost = bcrypt.DefaultCost

// UserService describes account lifecycle operations.
type UserService interface {
	Signup(ctx context.Context, email, password string) error
	Authenticate(ctx context.Context, email, password string) (*domain.Profile, string, error)
	GetProfile(ctx context.Context, id int64) (*domain.Profile, error)
	UpdateName(ctx context.Context, id int64, name string) (*domain.Profile, error)
}

type userService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
}

func NewUserService(users repository.UserRepository, tokens *auth.TokenManager) UserService {
	return &userService{users: users, tokens: tokens}
}

func (s *userService) Signup(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return ErrMissingField
	}

	if _, err := s.users.FindIDByEmail(ctx, email); err == nil {
		return ErrUserAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Name:         defaultName(email),
		JoinedAt:     time.Now().UTC().Format(time.RFC3339),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		// the existence check above can race with another signup
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return ErrUserAlreadyExists
		}
		return err
	}

	return nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.Profile, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", ErrMissingField
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !verifyPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	return user.Profile(), token, nil
}

func (s *userService) GetProfile(ctx context.Context, id int64) (*domain.Profile, error) {
	profile, err := s.users.GetProfileByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (s *userService) UpdateName(ctx context.Context, id int64, name string) (*domain.Profile, error) {
	if err := s.users.UpdateName(ctx, id, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.GetProfile(ctx, id)
}

func hashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword reports whether the plaintext matches the stored hash.
// A malformed hash is indistinguishable from a wrong password.
func verifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// normalizeEmail is the single place emails are lowercased; every layer
// below this one only ever sees the normalized form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// defaultName derives the initial display name from the email local part.
func defaultName(email string) string {
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}

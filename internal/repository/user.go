package repository

import (
	"context"
	"errors"

	"cervicare-server/internal/domain"
)

var (
	// ErrDuplicateEmail is returned by Create when the email is already taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrNotFound is returned when no user matches the lookup key.
	ErrNotFound = errors.New("user not found")
)

// UserRepository is the store contract shared by the sqlite backend and the
// snapshot-file fallback. Emails reaching this layer are already lowercased.
type UserRepository interface {
	Init(ctx context.Context) error
	FindIDByEmail(ctx context.Context, email string) (int64, error)
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetProfileByID(ctx context.Context, id int64) (*domain.Profile, error)
	UpdateName(ctx context.Context, id int64, name string) error
}

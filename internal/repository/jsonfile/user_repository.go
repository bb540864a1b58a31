// Package jsonfile implements the user repository on a single JSON snapshot
// file. Every mutation loads the whole snapshot, changes it in memory and
// rewrites the file. A single mutex serializes all operations, which is
// sufficient for the one-process deployment this backend targets; there is
// no cross-process locking.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cervicare-server/internal/domain"
	"cervicare-server/internal/repository"
)

// userRecord is the on-disk shape of one user.
type userRecord struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Name         string `json:"name"`
	JoinedAt     string `json:"joinedAt"`
}

type snapshot struct {
	Users []userRecord `json:"users"`
}

type UserRepository struct {
	mu   sync.Mutex
	path string
}

func NewUserRepository(path string) repository.UserRepository {
	return &UserRepository{path: path}
}

func (r *UserRepository) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if _, err := os.Stat(r.path); err == nil {
		return nil
	}
	return r.save(&snapshot{Users: []userRecord{}})
}

func (r *UserRepository) FindIDByEmail(ctx context.Context, email string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.load()
	if err != nil {
		return 0, err
	}
	for i := range snap.Users {
		if snap.Users[i].Email == email {
			return snap.Users[i].ID, nil
		}
	}
	return 0, repository.ErrNotFound
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.load()
	if err != nil {
		return 0, err
	}

	var maxID int64
	for i := range snap.Users {
		if snap.Users[i].Email == user.Email {
			return 0, repository.ErrDuplicateEmail
		}
		if snap.Users[i].ID > maxID {
			maxID = snap.Users[i].ID
		}
	}

	id := maxID + 1
	snap.Users = append(snap.Users, userRecord{
		ID:           id,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Name:         user.Name,
		JoinedAt:     user.JoinedAt,
	})
	if err := r.save(snap); err != nil {
		return 0, err
	}
	user.ID = id
	return id, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.load()
	if err != nil {
		return nil, err
	}
	for i := range snap.Users {
		if snap.Users[i].Email == email {
			u := snap.Users[i]
			return &domain.User{
				ID:           u.ID,
				Email:        u.Email,
				PasswordHash: u.PasswordHash,
				Name:         u.Name,
				JoinedAt:     u.JoinedAt,
			}, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetProfileByID(ctx context.Context, id int64) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.load()
	if err != nil {
		return nil, err
	}
	for i := range snap.Users {
		if snap.Users[i].ID == id {
			u := snap.Users[i]
			return &domain.Profile{
				ID:       u.ID,
				Email:    u.Email,
				Name:     u.Name,
				JoinedAt: u.JoinedAt,
			}, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) UpdateName(ctx context.Context, id int64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.load()
	if err != nil {
		return err
	}
	for i := range snap.Users {
		if snap.Users[i].ID == id {
			snap.Users[i].Name = name
			return r.save(snap)
		}
	}
	return repository.ErrNotFound
}

// load reads the whole snapshot. A missing file counts as an empty store so
// the backend works against a path that was never initialized.
func (r *UserRepository) load() (*snapshot, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &snapshot{Users: []userRecord{}}, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// save rewrites the snapshot through a temp file and rename so a failed
// write never truncates the existing file.
func (r *UserRepository) save(snap *snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

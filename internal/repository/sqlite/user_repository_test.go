package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cervicare-server/internal/domain"
	"cervicare-server/internal/repository"
)

func newTestRepo(t *testing.T) repository.UserRepository {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewUserRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func seedUser(t *testing.T, repo repository.UserRepository, email string) int64 {
	t.Helper()
	id, err := repo.Create(context.Background(), &domain.User{
		Email:        email,
		PasswordHash: "$2a$10$fakefakefakefakefakefake",
		Name:         "tester",
		JoinedAt:     "2026-08-31T10:00:00Z",
	})
	require.NoError(t, err)
	return id
}

func TestCreateAndLookup(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id := seedUser(t, repo, "a@x.com")

	found, err := repo.FindIDByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, id, found)

	_, err = repo.FindIDByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	user, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEmpty(t, user.PasswordHash)
	assert.Equal(t, "2026-08-31T10:00:00Z", user.JoinedAt)

	profile, err := repo.GetProfileByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "tester", profile.Name)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)

	seedUser(t, repo, "a@x.com")

	_, err := repo.Create(context.Background(), &domain.User{
		Email:        "a@x.com",
		PasswordHash: "other",
		Name:         "other",
		JoinedAt:     "2026-08-31T11:00:00Z",
	})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestUpdateName(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id := seedUser(t, repo, "a@x.com")

	require.NoError(t, repo.UpdateName(ctx, id, "Renamed"))

	profile, err := repo.GetProfileByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", profile.Name)
	assert.Equal(t, "a@x.com", profile.Email)

	assert.ErrorIs(t, repo.UpdateName(ctx, 9999, "Ghost"), repository.ErrNotFound)
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.sqlite")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRow(`SELECT 1`).Scan(&one))
	assert.Equal(t, 1, one)
}

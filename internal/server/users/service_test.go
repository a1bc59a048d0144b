package users

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/synchub/backend/internal/common"
	"github.com/synchub/backend/internal/dbx"
	"github.com/synchub/backend/internal/server/auth"
	"github.com/synchub/backend/internal/server/config"
	"github.com/synchub/backend/internal/server/models"
	"github.com/synchub/backend/internal/server/repositories/files"
	usersrepo "github.com/synchub/backend/internal/server/repositories/users"
)

type fakeUsersRepo struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User

	createErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{
		byEmail: make(map[string]*models.User),
		byID:    make(map[string]*models.User),
	}
}

func (f *fakeUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	clone := *user
	clone.ID = uuid.NewString()
	clone.CreatedAt = time.Now().UTC()
	f.byEmail[clone.Email] = &clone
	f.byID[clone.ID] = &clone
	return &clone, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
}

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository { return m.u }
func (m *fakeRepoManager) Files(db dbx.DBTX) files.Repository     { return nil }
func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func newTestService() (*Service, *fakeUsersRepo) {
	repo := newFakeUsersRepo()
	cfg := &config.Config{
		SecretKey:                   "test-secret",
		AccessTokenValidityDuration: time.Hour,
	}
	return NewService(nil, &fakeRepoManager{u: repo}, cfg), repo
}

func TestRegister_HashesPasswordAndLowercasesEmail(t *testing.T) {
	svc, repo := newTestService()

	user, err := svc.Register(context.Background(), "  User@Example.COM ", "User", "pass123")
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", user.Email)
	assert.NotEmpty(t, user.ID)

	stored := repo.byEmail["user@example.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, []byte("pass123"), stored.PasswordHash, "password must never be stored in the clear")
	assert.NoError(t, bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte("pass123")))
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), "", "User", "pw")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Register(context.Background(), "user@example.com", "User", "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), "user@example.com", "User", "pw1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "USER@example.com", "Other", "pw2")
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestLogin_Success(t *testing.T) {
	svc, _ := newTestService()

	registered, err := svc.Register(context.Background(), "user@example.com", "User", "pass123")
	require.NoError(t, err)

	user, token, err := svc.Login(context.Background(), "User@Example.com", "pass123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	userID, err := auth.GetUserIDFromToken(token, []byte("test-secret"))
	require.NoError(t, err)
	assert.Equal(t, registered.ID, userID)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), "user@example.com", "User", "pass123")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "user@example.com", "wrong")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newTestService()

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "pw")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestGetByID(t *testing.T) {
	svc, _ := newTestService()

	registered, err := svc.Register(context.Background(), "user@example.com", "User", "pw")
	require.NoError(t, err)

	user, err := svc.GetByID(context.Background(), registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)

	_, err = svc.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

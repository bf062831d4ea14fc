package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/modelhub-io/modelhub-api/internal/models"
	appErrors "github.com/modelhub-io/modelhub-api/pkg/errors"
)

type mockUserCRUDStore struct {
	nextID int64
	users  map[int64]*models.User
}

func newMockUserCRUDStore() *mockUserCRUDStore {
	return &mockUserCRUDStore{users: make(map[int64]*models.User)}
}

func (m *mockUserCRUDStore) Create(ctx context.Context, user *models.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return &pq.Error{Code: "23505", Constraint: "users_username_key"}
		}
		if u.Email == user.Email {
			return &pq.Error{Code: "23505", Constraint: "users_email_key"}
		}
	}
	m.nextID++
	user.ID = m.nextID
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserCRUDStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserCRUDStore) GetByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserCRUDStore) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserCRUDStore) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

func newUserFixture() (*UserService, *mockUserCRUDStore) {
	store := newMockUserCRUDStore()
	svc := NewUserService(store, BcryptHasher{Cost: bcrypt.MinCost}, nil, zap.NewNop())
	return svc, store
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, store := newUserFixture()

	user, err := svc.Register(context.Background(), models.CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.users[user.ID].PasswordHash), []byte("password123")))
}

func TestRegisterRejectsBadUsername(t *testing.T) {
	svc, _ := newUserFixture()

	for _, username := range []string{"ab", "has space", "bad!chars", ""} {
		_, err := svc.Register(context.Background(), models.CreateUserRequest{
			Username: username,
			Email:    "a@example.com",
			Password: "password123",
		})
		require.Error(t, err, "username %q should be rejected", username)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.Register(context.Background(), models.CreateUserRequest{Username: "alice", Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), models.CreateUserRequest{Username: "alice", Email: "b@example.com", Password: "password123"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyExists.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "username")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.Register(context.Background(), models.CreateUserRequest{Username: "alice", Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), models.CreateUserRequest{Username: "bob", Email: "a@example.com", Password: "password123"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyExists.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "email")
}

func TestUpdateSelfPartial(t *testing.T) {
	svc, store := newUserFixture()

	user, err := svc.Register(context.Background(), models.CreateUserRequest{Username: "alice", Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)
	oldHash := store.users[user.ID].PasswordHash

	email := "new@example.com"
	err = svc.UpdateSelf(context.Background(), user.ID, models.UpdateUserRequest{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", store.users[user.ID].Email)
	assert.Equal(t, "alice", store.users[user.ID].Username)
	assert.Equal(t, oldHash, store.users[user.ID].PasswordHash)
}

func TestUpdateSelfRehashesPassword(t *testing.T) {
	svc, store := newUserFixture()

	user, err := svc.Register(context.Background(), models.CreateUserRequest{Username: "alice", Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)
	oldHash := store.users[user.ID].PasswordHash

	password := "newpassword"
	err = svc.UpdateSelf(context.Background(), user.ID, models.UpdateUserRequest{Password: &password})
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, store.users[user.ID].PasswordHash)
}

func TestDeleteSelf(t *testing.T) {
	svc, store := newUserFixture()

	user, err := svc.Register(context.Background(), models.CreateUserRequest{Username: "alice", Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	err = svc.DeleteSelf(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, store.users)

	err = svc.DeleteSelf(context.Background(), user.ID)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestGetUsersSkipsUnknownIDs(t *testing.T) {
	svc, _ := newUserFixture()

	alice, err := svc.Register(context.Background(), models.CreateUserRequest{Username: "alice", Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	infos, err := svc.GetUsers(context.Background(), []int64{alice.ID, 99})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "alice", infos[0].Username)
}

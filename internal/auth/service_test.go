package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memUserStore is an in-memory UserStore for tests.
type memUserStore struct {
	users []User
}

func (m *memUserStore) LoadUsers(context.Context) ([]User, error) {
	return append([]User(nil), m.users...), nil
}

func (m *memUserStore) SaveUsers(_ context.Context, users []User) error {
	m.users = users
	return nil
}

func newTestService() (*Service, *memUserStore) {
	store := &memUserStore{}
	svc := NewService(store, nil, Config{JWTSecret: "test-secret", TokenExpiry: time.Hour})
	return svc, store
}

func TestRegister_HashesPassword(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "Dr. Achieng", "achieng@example.org", "s3cret", RoleDoctor)
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "achieng@example.org", user.Email)
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	assert.Len(t, store.users, 1)
}

func TestRegister_RejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "Dr. Achieng", "achieng@example.org", "s3cret", RoleDoctor)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Impostor", "Achieng@Example.org", "other", RoleDoctor)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_IssuesValidToken(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Dr. Achieng", "achieng@example.org", "s3cret", RoleAdmin)
	require.NoError(t, err)

	token, user, err := svc.Login(ctx, "achieng@example.org", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "Dr. Achieng", "achieng@example.org", "s3cret", RoleDoctor)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "achieng@example.org", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	store := &memUserStore{}
	svc := NewService(store, nil, Config{JWTSecret: "test-secret", TokenExpiry: -time.Minute})
	ctx := context.Background()

	_, err := svc.Register(ctx, "Dr. Achieng", "achieng@example.org", "s3cret", RoleDoctor)
	require.NoError(t, err)

	token, _, err := svc.Login(ctx, "achieng@example.org", "s3cret")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/hg_store/internal/domain"
	"github.com/Skotchmaster/hg_store/internal/kvstore"
	"github.com/Skotchmaster/hg_store/internal/models"
)

func newAccounts() (*Accounts, kvstore.Store, kvstore.Store) {
	durable, tab := kvstore.NewMemoryStore(), kvstore.NewMemoryStore()
	a := NewAccounts(durable, tab, nil)
	a.Now = func() time.Time { return time.UnixMilli(1700000000000) }
	return a, durable, tab
}

func validRegister() RegisterRequest {
	return RegisterRequest{
		Name:            "  Ada ",
		Email:           " ada@example.com ",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		AgreeTerms:      true,
	}
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
		field  string
	}{
		{name: "short name", mutate: func(r *RegisterRequest) { r.Name = " A " }, field: "name"},
		{name: "name before email", mutate: func(r *RegisterRequest) { r.Name = "A"; r.Email = "bad" }, field: "name"},
		{name: "bad email", mutate: func(r *RegisterRequest) { r.Email = "ada@" }, field: "email"},
		{name: "short password", mutate: func(r *RegisterRequest) { r.Password = "12345"; r.ConfirmPassword = "12345" }, field: "password"},
		{name: "mismatch", mutate: func(r *RegisterRequest) { r.ConfirmPassword = "secret2" }, field: "confirmPassword"},
		{name: "terms", mutate: func(r *RegisterRequest) { r.AgreeTerms = false }, field: "agreeTerms"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, durable, _ := newAccounts()

			req := validRegister()
			tt.mutate(&req)
			_, err := a.Register(context.Background(), req)
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, tt.field, domain.FieldOf(err))

			raw, err := durable.Get(context.Background(), kvstore.KeyUsers)
			require.NoError(t, err)
			assert.Nil(t, raw)
		})
	}
}

func TestRegister_CreatesUserAndSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a, durable, _ := newAccounts()

	s, err := a.Register(ctx, validRegister())
	require.NoError(t, err)
	assert.Equal(t, models.Session{ID: 1700000000000, Name: "Ada", Email: "ada@example.com"}, s)

	var users []models.User
	_, err = kvstore.GetJSON(ctx, durable, kvstore.KeyUsers, &users)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.NotEqual(t, "secret1", users[0].PasswordHash)

	current, err := a.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, s, *current)

	_, err = a.Register(ctx, validRegister())
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)

	other := validRegister()
	other.Email = "grace@example.com"
	s2, err := a.Register(ctx, other)
	require.NoError(t, err)
	assert.Greater(t, s2.ID, s.ID, "ids stay unique within the same millisecond")
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a, durable, tab := newAccounts()

	_, err := a.Register(ctx, validRegister())
	require.NoError(t, err)
	require.NoError(t, a.Logout(ctx))

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{name: "bad email format", email: "ada", password: "secret1", want: domain.ErrValidation},
		{name: "short password", email: "ada@example.com", password: "123", want: domain.ErrValidation},
		{name: "unknown user", email: "bob@example.com", password: "secret1", want: domain.ErrUserNotFound},
		{name: "email is case sensitive", email: "ADA@example.com", password: "secret1", want: domain.ErrUserNotFound},
		{name: "wrong password", email: "ada@example.com", password: "secret2", want: domain.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		_, err := a.Login(ctx, tt.email, tt.password, false)
		require.ErrorIs(t, err, tt.want, tt.name)
	}

	current, err := a.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	s, err := a.Login(ctx, "ada@example.com", "secret1", false)
	require.NoError(t, err)
	raw, err := durable.Get(ctx, kvstore.KeyCurrentUser)
	require.NoError(t, err)
	assert.Nil(t, raw, "not remembered")
	raw, err = tab.Get(ctx, kvstore.KeyCurrentUser)
	require.NoError(t, err)
	assert.NotNil(t, raw)

	s2, err := a.Login(ctx, "ada@example.com", "secret1", true)
	require.NoError(t, err)
	assert.Equal(t, s, s2)
	raw, err = tab.Get(ctx, kvstore.KeyCurrentUser)
	require.NoError(t, err)
	assert.Nil(t, raw, "only one scope holds the session")

	require.NoError(t, a.Logout(ctx))
	current, err = a.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestCurrentUser_DurableWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a, durable, tab := newAccounts()

	require.NoError(t, kvstore.SetJSON(ctx, tab, kvstore.KeyCurrentUser, models.Session{ID: 1, Name: "Tab", Email: "tab@example.com"}))
	require.NoError(t, kvstore.SetJSON(ctx, durable, kvstore.KeyCurrentUser, models.Session{ID: 2, Name: "Durable", Email: "durable@example.com"}))

	current, err := a.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "Durable", current.Name)
}

package service

import (
	"context"
	"testing"
	"time"

	"go-roastery-api/internal/model"
	"go-roastery-api/internal/repository"
	"go-roastery-api/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	*fixture
	auth  AuthService
	users UserService
	roles repository.RoleRepository
}

func newAuthFixture(t *testing.T, inactivity time.Duration) *authFixture {
	t.Helper()
	ctx := context.Background()
	f := newFixture(t)

	privileges := repository.NewPrivilegeRepo(f.db)
	roles := repository.NewRoleRepo(f.db)
	require.NoError(t, privileges.SeedDefaults(ctx))
	require.NoError(t, roles.SeedDefaults(ctx))

	tokens := jwt.NewManager("test-secret-with-at-least-32-chars!", "roastery-test", time.Hour)
	return &authFixture{
		fixture: f,
		auth:    NewAuthService(f.users, roles, f.businesses, f.db, tokens, inactivity, nil, nil),
		users:   NewUserService(f.users, privileges, roles),
		roles:   roles,
	}
}

func (f *authFixture) createStaff(t *testing.T, email, roleCode string) *model.User {
	t.Helper()
	role, err := f.roles.FindByCode(context.Background(), roleCode)
	require.NoError(t, err)
	user, err := f.users.CreateUser(context.Background(), &CreateUserRequest{
		Email:    email,
		Password: "correct-horse",
		FullName: "Staff Member",
		RoleID:   role.ID,
	}, testActor)
	require.NoError(t, err)
	return user
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, 0)

	resp, err := f.auth.Register(ctx, &RegisterRequest{
		Email:       "Ana@Example.com",
		Password:    "s3cret-pass",
		FullName:    "Ana Silva",
		Locale:      "es",
		CompanyName: "Cafe Ana",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ana@example.com", resp.User.Email)
	require.NotNil(t, resp.Role)
	assert.Equal(t, model.RoleCustomer, resp.Role.Code)

	businesses, err := f.businesses.FindAll(ctx, repository.BusinessFilter{Search: "Cafe Ana"})
	require.NoError(t, err)
	require.Len(t, businesses, 1)
	assert.Equal(t, model.SourceSignup, businesses[0].Source)
	assert.Equal(t, model.StageLead, businesses[0].Stage)
	require.NotNil(t, businesses[0].ProfileID)
	assert.Equal(t, resp.User.ID, *businesses[0].ProfileID)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.auth.Register(ctx, &RegisterRequest{Email: "ana@example.com", Password: "another-pass", FullName: "Ana"})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("without company no lead is opened", func(t *testing.T) {
		_, err := f.auth.Register(ctx, &RegisterRequest{Email: "joe@example.com", Password: "another-pass", FullName: "Joe"})
		require.NoError(t, err)

		all, err := f.businesses.FindAll(ctx, repository.BusinessFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := f.auth.Register(ctx, &RegisterRequest{Email: "x@example.com", Password: "short", FullName: "X"})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestAuthService_LoginAndValidate(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, 0)
	f.createStaff(t, "staff@roastery.test", model.RoleAdmin)

	first, err := f.auth.Login(ctx, "Staff@Roastery.test", "correct-horse")
	require.NoError(t, err)
	assert.Contains(t, first.Privileges, model.PrivOrderView)
	assert.NotContains(t, first.Privileges, model.PrivUserDelete)

	validated, err := f.auth.ValidateToken(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, "staff@roastery.test", validated.User.Email)

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.auth.Login(ctx, "staff@roastery.test", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.auth.Login(ctx, "ghost@roastery.test", "correct-horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("a second login replaces the first session", func(t *testing.T) {
		second, err := f.auth.Login(ctx, "staff@roastery.test", "correct-horse")
		require.NoError(t, err)

		_, err = f.auth.ValidateToken(ctx, first.Token)
		assert.ErrorIs(t, err, ErrSessionReplaced)

		_, err = f.auth.ValidateToken(ctx, second.Token)
		assert.NoError(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := f.auth.ValidateToken(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})
}

func TestAuthService_InactivityTimeout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, 5*time.Minute)
	staff := f.createStaff(t, "staff@roastery.test", model.RoleAdmin)

	staffLogin, err := f.auth.Login(ctx, "staff@roastery.test", "correct-horse")
	require.NoError(t, err)
	shopper, err := f.auth.Register(ctx, &RegisterRequest{Email: "ana@example.com", Password: "s3cret-pass", FullName: "Ana"})
	require.NoError(t, err)

	stale := time.Now().Add(-time.Hour)
	require.NoError(t, f.db.Model(&model.User{}).Where("id IN ?", []interface{}{staff.ID, shopper.User.ID}).
		Update("last_seen_at", stale).Error)

	_, err = f.auth.ValidateToken(ctx, staffLogin.Token)
	assert.ErrorIs(t, err, ErrSessionTimeout)

	_, err = f.auth.ValidateToken(ctx, shopper.Token)
	assert.NoError(t, err, "shoppers are not subject to the inactivity window")

	require.NoError(t, f.auth.Heartbeat(ctx, staff.ID))
	_, err = f.auth.ValidateToken(ctx, staffLogin.Token)
	assert.NoError(t, err)
}

func TestAuthService_ResetPassword(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, 0)
	f.createStaff(t, "staff@roastery.test", model.RoleAdmin)

	login, err := f.auth.Login(ctx, "staff@roastery.test", "correct-horse")
	require.NoError(t, err)

	err = f.auth.ResetPassword(ctx, "staff@roastery.test", "wrong", "battery-staple")
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = f.auth.ResetPassword(ctx, "staff@roastery.test", "correct-horse", "short")
	assert.ErrorIs(t, err, ErrValidation)

	err = f.auth.ResetPassword(ctx, "ghost@roastery.test", "correct-horse", "battery-staple")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, f.auth.ResetPassword(ctx, "staff@roastery.test", "correct-horse", "battery-staple"))

	_, err = f.auth.ValidateToken(ctx, login.Token)
	assert.ErrorIs(t, err, ErrNotAuthenticated, "a reset signs out every device")

	_, err = f.auth.Login(ctx, "staff@roastery.test", "battery-staple")
	assert.NoError(t, err)
}

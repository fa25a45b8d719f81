package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func register(t *testing.T, f *fixture, email string, role model.Role) *model.User {
	t.Helper()
	u, err := f.users.Register(f.ctx, model.RegisterRequest{
		Name:     "Ana",
		Email:    email,
		Password: "correct-horse",
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func TestRegister_DefaultsToStudent(t *testing.T) {
	f := newFixture(t)
	u := register(t, f, "  Ana@Example.com ", "")

	assert.Equal(t, model.RoleStudent, u.Role)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEqual(t, "correct-horse", u.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	register(t, f, "ana@example.com", model.RoleStudent)

	_, err := f.users.Register(f.ctx, model.RegisterRequest{
		Name: "Other", Email: "ANA@example.com", Password: "whatever1",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_IssuesTokenWithIdentityAndRole(t *testing.T) {
	f := newFixture(t)
	u := register(t, f, "eve@example.com", model.RoleEvaluator)

	resp, err := f.auth.Login(f.ctx, model.LoginRequest{Email: "eve@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleEvaluator, resp.Role)

	claims, err := f.auth.ValidateToken(f.ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, model.Principal{ID: u.ID, Role: model.RoleEvaluator}, claims.Principal())
	assert.True(t, claims.ExpiresAt.Time.Equal(f.clock.Now().Add(time.Hour).Truncate(time.Second)))
}

func TestLogin_WrongCredentials(t *testing.T) {
	f := newFixture(t)
	register(t, f, "ana@example.com", model.RoleStudent)

	_, err := f.auth.Login(f.ctx, model.LoginRequest{Email: "ana@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login(f.ctx, model.LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_Rejects(t *testing.T) {
	f := newFixture(t)
	u := register(t, f, "ana@example.com", model.RoleStudent)
	token, err := f.auth.GenerateToken(u)
	require.NoError(t, err)

	_, err = f.auth.ValidateToken(f.ctx, token+"x")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = f.auth.ValidateToken(f.ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: u.ID, Role: model.RoleAdmin})
	forged, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = f.auth.ValidateToken(f.ctx, forged)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	f.clock.Advance(2 * time.Hour)
	_, err = f.auth.ValidateToken(f.ctx, token)
	assert.ErrorIs(t, err, ErrTokenInvalid, "expired")
}

func TestValidateToken_RejectsUnknownRole(t *testing.T) {
	f := newFixture(t)
	token, err := f.auth.GenerateToken(&model.User{ID: uuid.New(), Role: "root"})
	require.NoError(t, err)

	_, err = f.auth.ValidateToken(f.ctx, token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestLogout_RevokesToken(t *testing.T) {
	f := newFixture(t)
	u := register(t, f, "ana@example.com", model.RoleStudent)
	token, err := f.auth.GenerateToken(u)
	require.NoError(t, err)

	claims, err := f.auth.ValidateToken(f.ctx, token)
	require.NoError(t, err)

	f.clock.Advance(15 * time.Minute)
	require.NoError(t, f.auth.Logout(f.ctx, claims))
	assert.Equal(t, 45*time.Minute, f.denylist.revoked[claims.ID])

	_, err = f.auth.ValidateToken(f.ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestResolveStudents(t *testing.T) {
	f := newFixture(t)
	a := f.student("Ana")

	ids, err := f.users.ResolveStudents(f.ctx, []uuid.UUID{a.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID}, ids)

	_, err = f.users.ResolveStudents(f.ctx, []uuid.UUID{a.ID, f.admin.ID})
	assert.ErrorIs(t, err, ErrInvalidStudents)
}

package service

import (
	"testing"

	"gstdesk/internal/compliance"
	"gstdesk/internal/model"
	"gstdesk/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userTestSecret = []byte("user-test-secret")

func TestCreateUserAndLogin(t *testing.T) {
	s := newStack(t)
	svc := NewUserService(repository.NewUserRepository(s.db), userTestSecret)

	user, err := svc.CreateUser(s.ctx(), CreateUserRequest{Username: "asha", Email: " Asha@Firm.in ", Password: "s3cret!", FirmName: "Asha & Co"})
	require.NoError(t, err)
	assert.Equal(t, model.RolePractitioner, user.Role)
	assert.Equal(t, "asha@firm.in", user.Email)

	tok, err := svc.Login(s.ctx(), LoginUserRequest{Email: "asha@firm.in", Password: "s3cret!"})
	require.NoError(t, err)
	require.NotEmpty(t, tok.ExpiresAt)

	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return userTestSecret, nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, user.ID.String(), claims["sub"])
	assert.Equal(t, model.RolePractitioner, claims["role"])

	got, err := svc.GetUserByID(s.ctx(), user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Asha & Co", got.FirmName)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newStack(t)
	svc := NewUserService(repository.NewUserRepository(s.db), userTestSecret)
	_, err := svc.CreateUser(s.ctx(), CreateUserRequest{Username: "asha", Email: "asha@firm.in", Password: "s3cret!"})
	require.NoError(t, err)

	_, err = svc.Login(s.ctx(), LoginUserRequest{Email: "asha@firm.in", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(s.ctx(), LoginUserRequest{Email: "nobody@firm.in", Password: "s3cret!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserRejectsDuplicatesAndRoles(t *testing.T) {
	s := newStack(t)
	svc := NewUserService(repository.NewUserRepository(s.db), userTestSecret)
	_, err := svc.CreateUser(s.ctx(), CreateUserRequest{Username: "asha", Email: "asha@firm.in", Password: "s3cret!"})
	require.NoError(t, err)

	var verr *compliance.ValidationError
	_, err = svc.CreateUser(s.ctx(), CreateUserRequest{Username: "asha", Email: "new@firm.in", Password: "s3cret!"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Field)

	_, err = svc.CreateUser(s.ctx(), CreateUserRequest{Username: "ravi", Email: "ASHA@firm.in", Password: "s3cret!"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	_, err = svc.CreateUser(s.ctx(), CreateUserRequest{Username: "ravi", Email: "ravi@firm.in", Password: "s3cret!", Role: "owner"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "role", verr.Field)

	_, total, err := svc.ListUsers(s.ctx(), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

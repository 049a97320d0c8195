package controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalpay/capitalpay-api/models"
)

func TestRegisterLoginFlow(t *testing.T) {
	r, _ := newTestEnv(t)

	w := doJSON(r, http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Jane Doe",
		"email":    "Jane@Example.com",
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decodeData(t, w, &created)
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, "jane@example.com", created.User.Email, "email is lowercased")
	assert.Equal(t, models.RoleUser, created.User.Role, "registration never grants elevated roles")
	assert.NotContains(t, w.Body.String(), "passwordHash")

	// duplicate email
	w = doJSON(r, http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Jane Again",
		"email":    "jane@example.com",
		"password": "secret123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User with this email already exists", decode(t, w).Message)

	w = doJSON(r, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "jane@example.com",
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var loggedIn struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decodeData(t, w, &loggedIn)
	assert.NotEmpty(t, loggedIn.Token)
	assert.NotNil(t, loggedIn.User.LastLogin)

	w = doJSON(r, http.MethodGet, "/api/auth/me", nil, loggedIn.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	decodeData(t, w, &me)
	assert.Equal(t, created.User.ID, me.ID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r, db := newTestEnv(t)
	seedUser(t, db, "Sam", "sam@example.com", models.RoleUser)

	w := doJSON(r, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "sam@example.com",
		"password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w).Message)

	w = doJSON(r, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "nobody@example.com",
		"password": "secret123",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w).Message, "unknown email and wrong password are indistinguishable")
}

func TestLoginDeactivatedAccount(t *testing.T) {
	r, db := newTestEnv(t)
	user, _ := seedUser(t, db, "Sam", "sam@example.com", models.RoleUser)
	require.NoError(t, db.Model(&user).UpdateColumn("is_active", false).Error)

	w := doJSON(r, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "sam@example.com",
		"password": "secret123",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Account has been deactivated", decode(t, w).Message)
}

func TestMeRequiresToken(t *testing.T) {
	r, db := newTestEnv(t)
	_, token := seedUser(t, db, "Sam", "sam@example.com", models.RoleUser)

	w := doJSON(r, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/api/auth/me", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/api/auth/me", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterValidatesEmail(t *testing.T) {
	r, _ := newTestEnv(t)

	w := doJSON(r, http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Jane",
		"email":    "not-an-email",
		"password": "secret123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please enter a valid email", decode(t, w).Message)
}

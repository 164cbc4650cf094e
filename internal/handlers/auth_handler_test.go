package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movapay/movapay/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	env := setupEnv(t)

	w := doRequest(t, env, http.MethodPost, "/v1/register", "", map[string]string{
		"username": "newuser",
		"email":    "newuser@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var registered struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	assert.NotEmpty(t, registered.Token)
	assert.False(t, registered.User.IsAdmin)
	assert.NotContains(t, w.Body.String(), "secret123")

	w = doRequest(t, env, http.MethodPost, "/v1/register", "", map[string]string{
		"username": "newuser",
		"email":    "different@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, env, http.MethodPost, "/v1/login", "", map[string]string{
		"username": "newuser",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var loggedIn struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loggedIn))
	require.NotEmpty(t, loggedIn.Token)

	w = doRequest(t, env, http.MethodGet, "/v1/profile", loggedIn.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "newuser@example.com")
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := setupEnv(t)
	createTestUser(t, env, "victor", false)

	w := doRequest(t, env, http.MethodPost, "/v1/login", "", map[string]string{
		"username": "victor",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := setupEnv(t)

	w := doRequest(t, env, http.MethodGet, "/v1/payments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, env, http.MethodGet, "/v1/translations", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeleteUserRequiresAdmin(t *testing.T) {
	env := setupEnv(t)
	target, targetToken := createTestUser(t, env, "target", false)
	_, adminToken := createTestUser(t, env, "admin", true)

	w := doRequest(t, env, http.MethodDelete, "/v1/users/"+target.ID.String(), targetToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, env, http.MethodDelete, "/v1/users/"+target.ID.String(), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", target.ID).Count(&count).Error)
	assert.Zero(t, count)
}

package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserMe(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request("GET", "/users/me", "alice-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var me MeInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))

	assert.Equal(t, "alice", string(me.User.ID))
	assert.Equal(t, []string{"alice@example.com"}, me.User.Emails)

	require.Contains(t, me.Pages, "/")
	require.Contains(t, me.Pages, "/docs/")
	assert.Equal(t, []string{"admin", "read", "write"}, me.Pages["/"].GroupNames())
	assert.Equal(t, []string{"admin", "read", "write"}, me.Pages["/docs/"].GroupNames())
}

func TestGetUserMeSkipsPagesWithoutPermissions(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request("GET", "/users/me", "bob-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var me MeInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))

	// bob is a root member with no groups there, so only docs shows up
	assert.NotContains(t, me.Pages, "/")
	require.Contains(t, me.Pages, "/docs/")
	assert.Equal(t, []string{"read"}, me.Pages["/docs/"].GroupNames())
}

func TestGetUserMeAnonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request("GET", "/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPatchUserMeName(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request("PATCH", "/users/me", "alice-token", `{"user":{"name":"Alice Cooper"}}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	got := env.request("GET", "/users/id/alice", "alice-token", "")
	require.Equal(t, http.StatusOK, got.Code)

	var info struct {
		Name *string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &info))
	require.NotNil(t, info.Name)
	assert.Equal(t, "Alice Cooper", *info.Name)
}

func TestGetUserByEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request("GET", "/users/email/bob@example.com", "alice-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "bob", info.ID)
}

func TestGetUserByEmailNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request("GET", "/users/email/ghost@example.com", "alice-token", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUserByIDNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request("GET", "/users/id/ghost", "alice-token", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

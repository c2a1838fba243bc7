package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	h, _ := newTestServer(t)

	register(t, h, "alice", "a@x.com", "secret1")

	t.Run("duplicate username", func(t *testing.T) {
		res := do(t, h, request{
			method: http.MethodPost,
			path:   "/api/v1/users/register",
			body:   map[string]string{"username": "alice", "email": "other@x.com", "password": "secret1"},
		})
		require.Equal(t, http.StatusConflict, res.StatusCode)
	})

	t.Run("duplicate email", func(t *testing.T) {
		res := do(t, h, request{
			method: http.MethodPost,
			path:   "/api/v1/users/register",
			body:   map[string]string{"username": "other", "email": "a@x.com", "password": "secret1"},
		})
		require.Equal(t, http.StatusConflict, res.StatusCode)
	})
}

func TestRegisterValidation(t *testing.T) {
	h, _ := newTestServer(t)

	tests := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{
			name:  "missing username",
			body:  map[string]string{"email": "a@x.com", "password": "secret1"},
			field: "username",
		},
		{
			name:  "bad email",
			body:  map[string]string{"username": "alice", "email": "not-an-email", "password": "secret1"},
			field: "email",
		},
		{
			name:  "short password",
			body:  map[string]string{"username": "alice", "email": "a@x.com", "password": "short"},
			field: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := do(t, h, request{method: http.MethodPost, path: "/api/v1/users/register", body: tt.body})
			require.Equal(t, http.StatusBadRequest, res.StatusCode)

			payload := decodeBody(t, res)
			fieldErrors, ok := payload["errors"].(map[string]any)
			require.True(t, ok)
			require.Contains(t, fieldErrors, tt.field)
		})
	}
}

func TestLoginSetsCookies(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "alice", "a@x.com", "secret1")

	res := do(t, h, request{
		method: http.MethodPost,
		path:   "/api/v1/users/login",
		body:   map[string]string{"username": "alice", "password": "secret1"},
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	access := cookieByName(res, "accessToken")
	require.NotNil(t, access)
	require.True(t, access.HttpOnly)
	refresh := cookieByName(res, "refreshToken")
	require.NotNil(t, refresh)
	require.True(t, refresh.HttpOnly)

	payload := decodeBody(t, res)
	require.NotEmpty(t, payload["token"])
	user, ok := payload["user"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "alice", user["username"])
	// The sanitized user never carries secret material.
	require.NotContains(t, user, "passwordHash")
	require.NotContains(t, user, "refreshToken")
}

func TestLoginByEmail(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "alice", "a@x.com", "secret1")

	res := do(t, h, request{
		method: http.MethodPost,
		path:   "/api/v1/users/login",
		body:   map[string]string{"email": "a@x.com", "password": "secret1"},
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestLoginWrongPassword(t *testing.T) {
	h, mem := newTestServer(t)
	register(t, h, "alice", "a@x.com", "secret1")

	res := do(t, h, request{
		method: http.MethodPost,
		path:   "/api/v1/users/login",
		body:   map[string]string{"username": "alice", "password": "wrong-1"},
	})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Empty(t, res.Cookies())

	// No store mutation: no refresh token was persisted.
	user, err := mem.Users().ByIdentifier(context.Background(), "alice")
	require.NoError(t, err)
	require.Empty(t, user.RefreshToken)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "alice", "a@x.com", "secret1")

	wrongPassword := do(t, h, request{
		method: http.MethodPost,
		path:   "/api/v1/users/login",
		body:   map[string]string{"username": "alice", "password": "wrong-1"},
	})
	unknownUser := do(t, h, request{
		method: http.MethodPost,
		path:   "/api/v1/users/login",
		body:   map[string]string{"username": "nobody", "password": "secret1"},
	})

	require.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	require.Equal(t, http.StatusUnauthorized, unknownUser.StatusCode)
	require.Equal(t, decodeBody(t, wrongPassword)["message"], decodeBody(t, unknownUser)["message"])
}

func TestRefreshRotation(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "alice", "a@x.com", "secret1")
	cookies := login(t, h, "alice", "secret1")

	res := do(t, h, request{method: http.MethodPost, path: "/api/v1/users/refresh", cookies: cookies})
	require.Equal(t, http.StatusOK, res.StatusCode)

	rotated := cookieByName(res, "refreshToken")
	require.NotNil(t, rotated)
	var original *http.Cookie
	for _, cookie := range cookies {
		if cookie.Name == "refreshToken" {
			original = cookie
		}
	}
	require.NotNil(t, original)
	require.NotEqual(t, original.Value, rotated.Value)

	// Re-presenting the pre-rotation cookie must fail.
	stale := do(t, h, request{method: http.MethodPost, path: "/api/v1/users/refresh", cookies: cookies})
	require.Equal(t, http.StatusUnauthorized, stale.StatusCode)

	// The rotated cookie still works.
	fresh := do(t, h, request{method: http.MethodPost, path: "/api/v1/users/refresh", cookies: res.Cookies()})
	require.Equal(t, http.StatusOK, fresh.StatusCode)
}

func TestRefreshFromBody(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "alice", "a@x.com", "secret1")
	cookies := login(t, h, "alice", "secret1")

	var refresh string
	for _, cookie := range cookies {
		if cookie.Name == "refreshToken" {
			refresh = cookie.Value
		}
	}
	require.NotEmpty(t, refresh)

	res := do(t, h, request{
		method: http.MethodPost,
		path:   "/api/v1/users/refresh",
		body:   map[string]string{"refreshToken": refresh},
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestRefreshWithoutToken(t *testing.T) {
	h, _ := newTestServer(t)

	res := do(t, h, request{method: http.MethodPost, path: "/api/v1/users/refresh"})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestLogoutRevokesSession(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "alice", "a@x.com", "secret1")
	cookies := login(t, h, "alice", "secret1")

	res := do(t, h, request{method: http.MethodPost, path: "/api/v1/users/logout", cookies: cookies})
	require.Equal(t, http.StatusOK, res.StatusCode)

	for _, name := range []string{"accessToken", "refreshToken"} {
		cleared := cookieByName(res, name)
		require.NotNil(t, cleared)
		require.Empty(t, cleared.Value)
		require.Negative(t, cleared.MaxAge)
	}

	// The revoked refresh token can no longer rotate.
	stale := do(t, h, request{method: http.MethodPost, path: "/api/v1/users/refresh", cookies: cookies})
	require.Equal(t, http.StatusUnauthorized, stale.StatusCode)
}

func TestUpdateProfile(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "alice", "a@x.com", "secret1")
	register(t, h, "bob", "b@x.com", "secret1")
	cookies := login(t, h, "alice", "secret1")

	res := do(t, h, request{
		method:  http.MethodPatch,
		path:    "/api/v1/users/update",
		body:    map[string]string{"username": "alice2"},
		cookies: cookies,
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	user := decodeBody(t, res)["user"].(map[string]any)
	require.Equal(t, "alice2", user["username"])

	t.Run("conflict", func(t *testing.T) {
		res := do(t, h, request{
			method:  http.MethodPatch,
			path:    "/api/v1/users/update",
			body:    map[string]string{"email": "b@x.com"},
			cookies: cookies,
		})
		require.Equal(t, http.StatusConflict, res.StatusCode)
	})

	t.Run("nothing to update", func(t *testing.T) {
		res := do(t, h, request{
			method:  http.MethodPatch,
			path:    "/api/v1/users/update",
			body:    map[string]string{},
			cookies: cookies,
		})
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

func TestUpdatePassword(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "alice", "a@x.com", "secret1")
	cookies := login(t, h, "alice", "secret1")

	t.Run("wrong current password", func(t *testing.T) {
		res := do(t, h, request{
			method:  http.MethodPatch,
			path:    "/api/v1/users/update-password",
			body:    map[string]string{"oldPassword": "wrong-1", "newPassword": "secret2"},
			cookies: cookies,
		})
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	res := do(t, h, request{
		method:  http.MethodPatch,
		path:    "/api/v1/users/update-password",
		body:    map[string]string{"oldPassword": "secret1", "newPassword": "secret2"},
		cookies: cookies,
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	// Old password no longer authenticates; the new one does.
	old := do(t, h, request{
		method: http.MethodPost,
		path:   "/api/v1/users/login",
		body:   map[string]string{"username": "alice", "password": "secret1"},
	})
	require.Equal(t, http.StatusUnauthorized, old.StatusCode)
	login(t, h, "alice", "secret2")
}

func TestDeleteAccount(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "alice", "a@x.com", "secret1")
	cookies := login(t, h, "alice", "secret1")

	res := do(t, h, request{method: http.MethodDelete, path: "/api/v1/users/", cookies: cookies})
	require.Equal(t, http.StatusOK, res.StatusCode)

	// The identity behind the still-valid access token is gone.
	me := do(t, h, request{method: http.MethodGet, path: "/api/v1/users/me", cookies: cookies})
	require.Equal(t, http.StatusUnauthorized, me.StatusCode)

	again := do(t, h, request{
		method: http.MethodPost,
		path:   "/api/v1/users/login",
		body:   map[string]string{"username": "alice", "password": "secret1"},
	})
	require.Equal(t, http.StatusUnauthorized, again.StatusCode)
}

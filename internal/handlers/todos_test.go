package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func createTodo(t *testing.T, h http.Handler, cookies []*http.Cookie, title, description string) map[string]any {
	t.Helper()
	res := do(t, h, request{
		method:  http.MethodPost,
		path:    "/api/v1/todos/",
		body:    map[string]any{"title": title, "description": description},
		cookies: cookies,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	return decodeBody(t, res)["todo"].(map[string]any)
}

func TestTodosRequireAuth(t *testing.T) {
	h, _ := newTestServer(t)

	res := do(t, h, request{method: http.MethodGet, path: "/api/v1/todos/"})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestCreateAndListTodos(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "alice", "a@x.com", "secret1")
	cookies := login(t, h, "alice", "secret1")

	created := createTodo(t, h, cookies, "groceries", "milk and eggs")
	require.Equal(t, "groceries", created["title"])
	require.Equal(t, false, created["completed"])

	createTodo(t, h, cookies, "cleanup", "tidy the desk")

	res := do(t, h, request{method: http.MethodGet, path: "/api/v1/todos/", cookies: cookies})
	require.Equal(t, http.StatusOK, res.StatusCode)
	todos := decodeBody(t, res)["todos"].([]any)
	require.Len(t, todos, 2)
}

func TestCreateTodoValidation(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "alice", "a@x.com", "secret1")
	cookies := login(t, h, "alice", "secret1")

	res := do(t, h, request{
		method:  http.MethodPost,
		path:    "/api/v1/todos/",
		body:    map[string]any{"title": "ab", "description": "abc"},
		cookies: cookies,
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	fieldErrors := decodeBody(t, res)["errors"].(map[string]any)
	require.Contains(t, fieldErrors, "title")
	require.Contains(t, fieldErrors, "description")
}

func TestUpdateTodo(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "alice", "a@x.com", "secret1")
	cookies := login(t, h, "alice", "secret1")

	created := createTodo(t, h, cookies, "groceries", "milk and eggs")
	id := created["id"].(string)

	res := do(t, h, request{
		method:  http.MethodPatch,
		path:    "/api/v1/todos/" + id,
		body:    map[string]any{"completed": true},
		cookies: cookies,
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	todo := decodeBody(t, res)["todo"].(map[string]any)
	require.Equal(t, true, todo["completed"])
	require.Equal(t, "groceries", todo["title"])

	t.Run("empty patch", func(t *testing.T) {
		res := do(t, h, request{
			method:  http.MethodPatch,
			path:    "/api/v1/todos/" + id,
			body:    map[string]any{},
			cookies: cookies,
		})
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

func TestDeleteTodo(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "alice", "a@x.com", "secret1")
	cookies := login(t, h, "alice", "secret1")

	created := createTodo(t, h, cookies, "groceries", "milk and eggs")
	id := created["id"].(string)

	res := do(t, h, request{method: http.MethodDelete, path: "/api/v1/todos/" + id, cookies: cookies})
	require.Equal(t, http.StatusOK, res.StatusCode)

	again := do(t, h, request{method: http.MethodDelete, path: "/api/v1/todos/" + id, cookies: cookies})
	require.Equal(t, http.StatusNotFound, again.StatusCode)
}

func TestTodosAreScopedToOwner(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "alice", "a@x.com", "secret1")
	register(t, h, "bob", "b@x.com", "secret1")
	aliceCookies := login(t, h, "alice", "secret1")
	bobCookies := login(t, h, "bob", "secret1")

	created := createTodo(t, h, aliceCookies, "groceries", "milk and eggs")
	id := created["id"].(string)

	// Bob sees an empty list and cannot touch Alice's item by id.
	res := do(t, h, request{method: http.MethodGet, path: "/api/v1/todos/", cookies: bobCookies})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Empty(t, decodeBody(t, res)["todos"])

	patch := do(t, h, request{
		method:  http.MethodPatch,
		path:    "/api/v1/todos/" + id,
		body:    map[string]any{"completed": true},
		cookies: bobCookies,
	})
	require.Equal(t, http.StatusNotFound, patch.StatusCode)

	del := do(t, h, request{method: http.MethodDelete, path: "/api/v1/todos/" + id, cookies: bobCookies})
	require.Equal(t, http.StatusNotFound, del.StatusCode)
}

func TestDeleteAccountRemovesTodos(t *testing.T) {
	h, mem := newTestServer(t)
	register(t, h, "alice", "a@x.com", "secret1")
	cookies := login(t, h, "alice", "secret1")

	createTodo(t, h, cookies, "groceries", "milk and eggs")

	user, err := mem.Users().ByIdentifier(context.Background(), "alice")
	require.NoError(t, err)

	res := do(t, h, request{method: http.MethodDelete, path: "/api/v1/users/", cookies: cookies})
	require.Equal(t, http.StatusOK, res.StatusCode)

	todos, err := mem.Todos().ByOwner(context.Background(), user.ID)
	require.NoError(t, err)
	require.Empty(t, todos)
}

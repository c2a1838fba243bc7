package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"gotodo/internal/config"
	"gotodo/internal/handlers"
	"gotodo/internal/session"
	"gotodo/internal/store"
	"gotodo/internal/token"
)

var testTokenConfig = token.Config{
	AccessKey:  []byte("access-test-key"),
	RefreshKey: []byte("refresh-test-key"),
	AccessTTL:  15 * time.Minute,
	RefreshTTL: 14 * 24 * time.Hour,
}

func newTestServer(t *testing.T) (http.Handler, *store.MemoryStore) {
	t.Helper()

	codec, err := token.NewCodec(testTokenConfig)
	require.NoError(t, err)

	mem := store.NewMemoryStore()
	sessions := session.NewManager(mem.Users(), codec)

	cfg := config.Config{
		AccessTokenTTL:  testTokenConfig.AccessTTL,
		RefreshTokenTTL: testTokenConfig.RefreshTTL,
	}

	server := handlers.New(mem.Users(), mem.Todos(), sessions, codec, cfg, zerolog.Nop())
	return server.Routes(), mem
}

type request struct {
	method  string
	path    string
	body    any
	cookies []*http.Cookie
	bearer  string
}

func do(t *testing.T, h http.Handler, req request) *http.Response {
	t.Helper()

	var body *bytes.Buffer
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		require.NoError(t, err)
		body = bytes.NewBuffer(encoded)
	} else {
		body = bytes.NewBuffer(nil)
	}

	httpReq := httptest.NewRequest(req.method, req.path, body)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range req.cookies {
		httpReq.AddCookie(cookie)
	}
	if req.bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.bearer)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httpReq)
	return rec.Result()
}

func decodeBody(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	defer res.Body.Close()

	var payload map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	return payload
}

func cookieByName(res *http.Response, name string) *http.Cookie {
	for _, cookie := range res.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func register(t *testing.T, h http.Handler, username, email, password string) {
	t.Helper()
	res := do(t, h, request{
		method: http.MethodPost,
		path:   "/api/v1/users/register",
		body:   map[string]string{"username": username, "email": email, "password": password},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
}

func login(t *testing.T, h http.Handler, username, password string) []*http.Cookie {
	t.Helper()
	res := do(t, h, request{
		method: http.MethodPost,
		path:   "/api/v1/users/login",
		body:   map[string]string{"username": username, "password": password},
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	cookies := res.Cookies()
	require.NotNil(t, cookieByName(res, "accessToken"))
	require.NotNil(t, cookieByName(res, "refreshToken"))
	return cookies
}

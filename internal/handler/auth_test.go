package handler_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snipy/internal/auth"
	"github.com/sakif/snipy/internal/handler"
	"github.com/sakif/snipy/internal/model"
	"github.com/sakif/snipy/internal/repository/sqlite"
	"github.com/sakif/snipy/internal/service"
)

func newAuthTestHandler(t *testing.T) (*handler.AuthHandler, *auth.TokenService) {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-test-secret-test-key")
	if err != nil {
		t.Fatalf("creating token service: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	authSvc := service.NewAuthService(db, auth.NewPasswordServiceForTest(4), logger)

	return handler.NewAuthHandler(authSvc, tokens, nil, logger), tokens
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return c
		}
	}
	return nil
}

func TestAuthHandler_RegisterIssuesSession(t *testing.T) {
	h, tokens := newAuthTestHandler(t)

	rr := httptest.NewRecorder()
	h.HandleRegister(rr, httptest.NewRequest(http.MethodPost, "/auth/register",
		bytes.NewBufferString(`{"email":"Ada@Example.com","password":"hunter2hunter2","name":"Ada"}`)))

	require.Equal(t, http.StatusCreated, rr.Code)

	raw := rr.Body.String()

	var user model.User
	require.NoError(t, json.Unmarshal([]byte(raw), &user))
	assert.Equal(t, "ada@example.com", user.Email, "emails normalize to lower case")
	assert.Equal(t, "Ada", user.Name)

	// The hash never leaves the server.
	assert.NotContains(t, raw, "password")

	cookie := sessionCookie(rr)
	require.NotNil(t, cookie, "registration logs the account in")
	assert.True(t, cookie.HttpOnly)

	userID, err := tokens.Validate(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	cases := map[string]string{
		"short password": `{"email":"a@b.com","password":"short"}`,
		"bad email":      `{"email":"not-an-email","password":"hunter2hunter2"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.HandleRegister(rr, httptest.NewRequest(http.MethodPost, "/auth/register",
				bytes.NewBufferString(body)))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}

	t.Run("duplicate email", func(t *testing.T) {
		body := `{"email":"dup@example.com","password":"hunter2hunter2"}`
		rr := httptest.NewRecorder()
		h.HandleRegister(rr, httptest.NewRequest(http.MethodPost, "/auth/register",
			bytes.NewBufferString(body)))
		require.Equal(t, http.StatusCreated, rr.Code)

		rr = httptest.NewRecorder()
		h.HandleRegister(rr, httptest.NewRequest(http.MethodPost, "/auth/register",
			bytes.NewBufferString(body)))
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	rr := httptest.NewRecorder()
	h.HandleRegister(rr, httptest.NewRequest(http.MethodPost, "/auth/register",
		bytes.NewBufferString(`{"email":"ada@example.com","password":"hunter2hunter2"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	t.Run("good credentials", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleLogin(rr, httptest.NewRequest(http.MethodPost, "/auth/login",
			bytes.NewBufferString(`{"email":"ada@example.com","password":"hunter2hunter2"}`)))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotNil(t, sessionCookie(rr))
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleLogin(rr, httptest.NewRequest(http.MethodPost, "/auth/login",
			bytes.NewBufferString(`{"email":"ada@example.com","password":"wrong-password"}`)))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Nil(t, sessionCookie(rr))
	})

	t.Run("unknown email", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleLogin(rr, httptest.NewRequest(http.MethodPost, "/auth/login",
			bytes.NewBufferString(`{"email":"nobody@example.com","password":"hunter2hunter2"}`)))

		// Same status as a wrong password, so the endpoint does not leak
		// which emails exist.
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAuthHandler_LogoutExpiresCookie(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	rr := httptest.NewRecorder()
	h.HandleLogout(rr, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	cookie := sessionCookie(rr)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestAuthHandler_Me(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	rr := httptest.NewRecorder()
	h.HandleRegister(rr, httptest.NewRequest(http.MethodPost, "/auth/register",
		bytes.NewBufferString(`{"email":"ada@example.com","password":"hunter2hunter2","name":"Ada"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var registered model.User
	decodeBody(t, rr, &registered)

	rr = httptest.NewRecorder()
	h.HandleMe(rr, request(http.MethodGet, "/auth/me", registered.ID, "", ""))

	require.Equal(t, http.StatusOK, rr.Code)

	var me model.User
	decodeBody(t, rr, &me)
	assert.Equal(t, registered.ID, me.ID)
	assert.Equal(t, "Ada", me.Name)
}

func TestAuthHandler_GitHubNotConfigured(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	rr := httptest.NewRecorder()
	h.HandleGitHubLogin(rr, httptest.NewRequest(http.MethodGet, "/auth/github/login", nil))
	assert.Equal(t, http.StatusNotImplemented, rr.Code)

	rr = httptest.NewRecorder()
	h.HandleGitHubCallback(rr, httptest.NewRequest(http.MethodGet, "/auth/github/callback", nil))
	assert.Equal(t, http.StatusNotImplemented, rr.Code)
}

func TestAuthHandler_CallbackRejectsBadState(t *testing.T) {
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-test-secret-test-key")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	authSvc := service.NewAuthService(db, auth.NewPasswordServiceForTest(4), logger)
	github := auth.NewGitHubProvider("client-id", "client-secret", "http://localhost/auth/github/callback")
	h := handler.NewAuthHandler(authSvc, tokens, github, logger)

	t.Run("missing state cookie", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleGitHubCallback(rr, httptest.NewRequest(http.MethodGet,
			"/auth/github/callback?state=abc&code=xyz", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("mismatched state", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?state=abc&code=xyz", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "different"})

		rr := httptest.NewRecorder()
		h.HandleGitHubCallback(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuthHandler_LoginRedirectsToGitHub(t *testing.T) {
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-test-secret-test-key")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	authSvc := service.NewAuthService(db, auth.NewPasswordServiceForTest(4), logger)
	github := auth.NewGitHubProvider("client-id", "client-secret", "http://localhost/auth/github/callback")
	h := handler.NewAuthHandler(authSvc, tokens, github, logger)

	rr := httptest.NewRecorder()
	h.HandleGitHubLogin(rr, httptest.NewRequest(http.MethodGet, "/auth/github/login", nil))

	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	location := rr.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "https://github.com/login/oauth/authorize"),
		"redirect target %q", location)
	assert.Contains(t, location, "state=")
}

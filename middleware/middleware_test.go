package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"ShiftAudit/Models"
	"ShiftAudit/Store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var secret = []byte("0123456789abcdef0123")

type fakeAccounts struct {
	sessions map[uuid.UUID]*Models.LoginSession
	users    map[uuid.UUID]*Models.User
}

func (f fakeAccounts) GetLoginSession(_ context.Context, id uuid.UUID) (*Models.LoginSession, error) {
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	return nil, Store.ErrNotFound
}

func (f fakeAccounts) GetUser(_ context.Context, id uuid.UUID) (*Models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, Store.ErrNotFound
}

func setup(t *testing.T) (*fiber.App, fakeAccounts, *Models.User, *Models.LoginSession) {
	t.Helper()
	user := &Models.User{Email: "ana@example.com"}
	user.ID = uuid.New()
	ls := &Models.LoginSession{UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	ls.ID = uuid.New()
	accounts := fakeAccounts{
		sessions: map[uuid.UUID]*Models.LoginSession{ls.ID: ls},
		users:    map[uuid.UUID]*Models.User{user.ID: user},
	}

	app := fiber.New()
	app.Get("/me", Verify(secret, accounts), func(c *fiber.Ctx) error {
		u, ok := CurrentUser(c)
		require.True(t, ok)
		id, _ := CurrentLoginSession(c)
		return c.JSON(fiber.Map{"email": u.Email, "session": id.String()})
	})
	return app, accounts, user, ls
}

func TestVerifyAcceptsCookieAndBearer(t *testing.T) {
	app, _, user, ls := setup(t)
	token, err := IssueToken(secret, user.ID, ls.ID, ls.ExpiresAt)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", CookieName+"="+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestVerifyRejects(t *testing.T) {
	app, accounts, user, ls := setup(t)

	valid, err := IssueToken(secret, user.ID, ls.ID, ls.ExpiresAt)
	require.NoError(t, err)
	wrongKey, err := IssueToken([]byte("another-secret-key-123"), user.ID, ls.ID, ls.ExpiresAt)
	require.NoError(t, err)
	expired, err := IssueToken(secret, user.ID, ls.ID, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	otherUser, err := IssueToken(secret, uuid.New(), ls.ID, ls.ExpiresAt)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		prep  func()
	}{
		{"missing", "", nil},
		{"garbage", "not-a-token", nil},
		{"wrong key", wrongKey, nil},
		{"expired", expired, nil},
		{"session of another user", otherUser, nil},
		{"signed out", valid, func() { delete(accounts.sessions, ls.ID) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prep != nil {
				tt.prep()
			}
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestParseTokenClaims(t *testing.T) {
	userID, sessionID := uuid.New(), uuid.New()
	token, err := IssueToken(secret, userID, sessionID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Issuer)
	assert.Equal(t, sessionID.String(), claims.ID)

	_, err = ParseToken(secret, token+"x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler, err := LoggingMiddleware(LogConfig{
		Logger:        zap.New(core),
		IncludeUserID: true,
		SkipPaths:     []string{"/health"},
	})
	require.NoError(t, err)

	app := fiber.New()
	app.Use(handler)
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	for _, path := range []string{"/health", "/ok", "/boom", "/missing"} {
		_, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.EqualValues(t, 404, entries[2].ContextMap()["status"])
}

package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"task-tracker-api/internal/apperr"
	"task-tracker-api/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newManager() *auth.Manager {
	return auth.NewManager("test-secret", "issuer", "audience", time.Hour)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  c.GetUint(KeyUserID),
			"category": c.GetString(KeyCategory),
		})
	})
	return r
}

func TestJWTAuthMiddleware_Success(t *testing.T) {
	mgr := newManager()
	r := newRouter(JWTAuthMiddleware(mgr))

	token, err := mgr.GenerateToken(auth.Identity{UserID: 7, Username: "alice", Category: "Non-Management"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"user_id":7,"category":"Non-Management"}`, w.Body.String())
}

func TestJWTAuthMiddleware_QueryToken(t *testing.T) {
	mgr := newManager()
	r := newRouter(JWTAuthMiddleware(mgr))

	token, err := mgr.GenerateToken(auth.Identity{UserID: 3})
	require.NoError(t, err)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_MissingHeader(t *testing.T) {
	r := newRouter(JWTAuthMiddleware(newManager()))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_ForeignSecret(t *testing.T) {
	r := newRouter(JWTAuthMiddleware(newManager()))

	other := auth.NewManager("other-secret", "issuer", "audience", time.Hour)
	token, err := other.GenerateToken(auth.Identity{UserID: 1})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireCategory(t *testing.T) {
	mgr := newManager()
	stored := map[uint]string{
		1: "Task Management System Manager",
		2: "Non-Management",
	}
	lookup := func(_ context.Context, id uint) (string, error) {
		if id == 99 {
			return "", errors.New("db down")
		}
		category, ok := stored[id]
		if !ok {
			return "", apperr.ErrUserNotFound
		}
		return category, nil
	}
	r := newRouter(JWTAuthMiddleware(mgr), RequireCategory(lookup, "Task Management System Manager"))

	for id, want := range map[uint]int{
		1:  http.StatusOK,
		2:  http.StatusForbidden,
		3:  http.StatusUnauthorized,
		99: http.StatusInternalServerError,
	} {
		// every token claims the allowed category; only the stored one counts
		token, err := mgr.GenerateToken(auth.Identity{UserID: id, Category: "Task Management System Manager"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, want, w.Code, id)
	}
}

func TestAPIKey(t *testing.T) {
	open := newRouter(APIKey(""))
	w := httptest.NewRecorder()
	open.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.Equal(t, http.StatusOK, w.Code)

	guarded := newRouter(APIKey("s3cret"))
	w = httptest.NewRecorder()
	guarded.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-API-Key", "s3cret")
	w = httptest.NewRecorder()
	guarded.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID(t *testing.T) {
	r := newRouter(RequestID(slog.New(slog.NewTextHandler(io.Discard, nil))))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	_, err := uuid.Parse(w.Header().Get(HeaderRequestID))
	require.NoError(t, err)

	sent := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(HeaderRequestID, sent)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, sent, w.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.NotEqual(t, "not-a-uuid", w.Header().Get(HeaderRequestID))
}

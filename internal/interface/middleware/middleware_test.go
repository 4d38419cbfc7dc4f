package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
	"github.com/oksasatya/storyverse-api/internal/domain/errs"
	"github.com/oksasatya/storyverse-api/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

type stubAccounts map[string]*entity.Account

func (s stubAccounts) Profile(_ context.Context, id string) (*entity.Account, error) {
	if a, ok := s[id]; ok {
		return a, nil
	}
	return nil, errs.NotFound("account not found")
}

func guarded(accounts AccountResolver, jwt *helpers.JWTManager, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{Auth(accounts, jwt)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		acc, ok := AccountFromContext(c.Request.Context())
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, acc.ID)
	})
	r.GET("/me", handlers...)
	return r
}

func TestAuth(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", time.Hour)
	accounts := stubAccounts{
		"a1": {ID: "a1", IsLoggedIn: true, Role: entity.RoleUser},
		"a2": {ID: "a2", IsLoggedIn: false},
	}
	r := guarded(accounts, jwt)

	tok1, _, err := jwt.Issue("a1")
	require.NoError(t, err)
	tok2, _, _ := jwt.Issue("a2")
	tok3, _, _ := jwt.Issue("gone")
	expired, _, _ := helpers.NewJWTManager("secret", time.Hour).
		WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).Issue("a1")
	forged, _, _ := helpers.NewJWTManager("other", time.Hour).Issue("a1")

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"bearer", "Bearer " + tok1, "", http.StatusOK},
		{"cookie fallback", "", tok1, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"logged out", "Bearer " + tok2, "", http.StatusUnauthorized},
		{"deleted account", "Bearer " + tok3, "", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + forged, "", http.StatusUnauthorized},
		{"garbage", "Bearer x.y.z", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: helpers.SessionCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "a1", w.Body.String())
			}
		})
	}
}

func TestIdentify(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", time.Hour)
	accounts := stubAccounts{
		"a1": {ID: "a1", IsLoggedIn: true},
		"a2": {ID: "a2", IsLoggedIn: false},
	}
	r := gin.New()
	r.POST("/logout", Identify(accounts, jwt), func(c *gin.Context) {
		if acc := CurrentAccount(c); acc != nil {
			c.String(http.StatusOK, acc.ID)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	tok1, _, err := jwt.Issue("a1")
	require.NoError(t, err)
	tok2, _, _ := jwt.Issue("a2")
	forged, _, _ := helpers.NewJWTManager("other", time.Hour).Issue("a1")

	for header, want := range map[string]string{
		"":                   "anonymous",
		"Bearer " + tok1:     "a1",
		"Bearer " + tok2:     "anonymous",
		"Bearer " + forged:   "anonymous",
		"Bearer not-a-token": "anonymous",
	} {
		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, header)
		assert.Equal(t, want, w.Body.String(), header)
	}
}

func TestRequireRole(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", time.Hour)
	accounts := stubAccounts{
		"admin": {ID: "admin", IsLoggedIn: true, Role: entity.RoleAdmin},
		"user":  {ID: "user", IsLoggedIn: true, Role: entity.RoleUser},
	}

	call := func(r *gin.Engine, id string) int {
		tok, _, _ := jwt.Issue(id)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	strict := guarded(accounts, jwt, RequireRole("admin"))
	assert.Equal(t, http.StatusOK, call(strict, "admin"))
	assert.Equal(t, http.StatusForbidden, call(strict, "user"))

	open := guarded(accounts, jwt, RequireRole(""))
	assert.Equal(t, http.StatusOK, call(open, "user"))
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	r := gin.New()
	r.Use(RealIP())
	r.POST("/login", RateLimit(rdb, 2, time.Minute, KeyByIPAndPath(), nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, hit("203.0.113.1").Code)
	w := hit("203.0.113.1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	w = hit("203.0.113.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, hit("203.0.113.2").Code, "other clients have their own window")

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, hit("203.0.113.1").Code)
}

func TestRateLimit_FailsOpenAndBypass(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	r := gin.New()
	r.GET("/vars", RateLimit(rdb, 1, time.Minute, KeyByIP(), AllowPrivateIP()), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/vars", nil)
		req.RemoteAddr = "127.0.0.1:5555"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	mr.Close()
	req := httptest.NewRequest(http.MethodGet, "/vars", nil)
	req.RemoteAddr = "198.51.100.7:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDAndRealIP(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")+"|"+ClientIP(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-Connecting-IP", "198.51.100.20")
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id+"|198.51.100.20", w.Body.String())

	keep := uuid.NewString()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, keep)
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, keep+"|203.0.113.5", w.Body.String())
}

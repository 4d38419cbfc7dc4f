package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/storyverse-api/config"
	"github.com/oksasatya/storyverse-api/internal/application"
	"github.com/oksasatya/storyverse-api/internal/domain/entity"
	"github.com/oksasatya/storyverse-api/internal/infrastructure/media"
	"github.com/oksasatya/storyverse-api/internal/infrastructure/memory"
	"github.com/oksasatya/storyverse-api/internal/interface/middleware"
	"github.com/oksasatya/storyverse-api/pkg/helpers"
	"github.com/oksasatya/storyverse-api/pkg/validation"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type codeBox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (b *codeBox) NotifyResetCode(_ context.Context, msg application.ResetCodeMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.codes[msg.Email] = msg.Code
	return nil
}

func (b *codeBox) get(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codes[email]
}

type testAPI struct {
	engine   *gin.Engine
	accounts *memory.AccountRepository
	stories  *memory.StoryRepository
	codes    *codeBox
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	dir := t.TempDir()
	store, err := media.NewLocalStore(dir, "/uploads")
	require.NoError(t, err)

	cfg := &config.Config{
		ContentAdminRole: "admin",
		ResetCodeTTL:     5 * time.Minute,
		MediaBackend:     "local",
		MediaLocalDir:    dir,
		MediaLocalPrefix: "/uploads",
		CookieDomain:     "localhost",
	}
	accounts := memory.NewAccountRepository()
	stories := memory.NewStoryRepository()
	codes := &codeBox{codes: map[string]string{}}

	engine := gin.New()
	reg := NewRegistry(engine)
	reg.Use(middleware.RequestID(), middleware.RealIP())
	Mount(reg, Deps{
		Config: cfg,
		Logger: helpers.NewNopLogger(),
		Redis:  rdb,
		JWT:    helpers.NewJWTManager("test-secret", time.Hour),
		Repos: Repositories{
			Accounts: accounts,
			Stories:  stories,
			Banners:  memory.NewBannerRepository(),
			Characters: memory.NewCharacterRepository(
				entity.Character{ID: "c1", Name: "Luna", Category: "anime"},
			),
		},
		Media:    store,
		Notifier: codes,
	})
	reg.RegisterAll()
	return &testAPI{engine: engine, accounts: accounts, stories: stories, codes: codes}
}

type apiBody struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (int, apiBody) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return a.send(t, req, token)
}

func (a *testAPI) send(t *testing.T, req *http.Request, token string) (int, apiBody) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	var out apiBody
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

type filePart struct {
	field, name, contentType string
	data                     []byte
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, files ...filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (a *testAPI) login(t *testing.T, email, password string) string {
	t.Helper()
	code, body := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, code, body.Message)
	var sess struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &sess))
	require.NotEmpty(t, sess.Token)
	return sess.Token
}

func (a *testAPI) admin(t *testing.T) string {
	t.Helper()
	hash, err := helpers.HashPassword("admin-pass")
	require.NoError(t, err)
	require.NoError(t, a.accounts.Create(context.Background(), &entity.Account{
		Email: "admin@example.com", PasswordHash: hash, Role: entity.RoleAdmin,
	}))
	return a.login(t, "admin@example.com", "admin-pass")
}

func TestAccountLifecycle(t *testing.T) {
	api := newTestAPI(t)
	creds := map[string]string{"email": "luna@example.com", "password": "secret1"}

	code, _ := api.do(t, http.MethodPost, "/api/auth/register", "", creds)
	assert.Equal(t, http.StatusCreated, code)
	code, body := api.do(t, http.MethodPost, "/api/auth/register", "", creds)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "email already exists", body.Message)
	code, body = api.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "x@example.com", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "password must be minimum 6 characters", body.Message)

	code, body = api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "luna@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid credentials", body.Message)
	_, unknown := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "wrong-pass"})
	assert.Equal(t, body.Message, unknown.Message)

	token := api.login(t, "luna@example.com", "secret1")

	code, _ = api.do(t, http.MethodGet, "/api/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = api.do(t, http.MethodGet, "/api/auth/profile", token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, body = api.do(t, http.MethodPost, "/api/auth/complete-profile", token, map[string]any{"nickname": "Luna", "gender": "Female", "isAdultConfirmed": true})
	require.Equal(t, http.StatusOK, code, body.Message)
	assert.Contains(t, string(body.Data), `"nickname":"Luna"`)
	code, _ = api.do(t, http.MethodPost, "/api/auth/complete-profile", token, map[string]any{"gender": "Other"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(t, http.MethodPost, "/api/auth/change-password", token, map[string]string{"oldPassword": "nope-nope", "newPassword": "secret2"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = api.do(t, http.MethodPost, "/api/auth/change-password", token, map[string]string{"oldPassword": "secret1", "newPassword": "secret2"})
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(t, http.MethodPost, "/api/auth/logout", token, map[string]string{"email": "luna@example.com"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(t, http.MethodGet, "/api/auth/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code, "logged out accounts are rejected while the token is unexpired")
	code, _ = api.do(t, http.MethodPost, "/api/auth/logout", "", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, code)

	token = api.login(t, "luna@example.com", "secret2")
	code, _ = api.do(t, http.MethodDelete, "/api/auth/delete-account", token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(t, http.MethodGet, "/api/auth/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestLogout_EndsOnlyThePresentedSession(t *testing.T) {
	api := newTestAPI(t)
	admin := api.admin(t)
	code, _ := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "u@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, code)
	user := api.login(t, "u@example.com", "secret1")

	code, _ = api.do(t, http.MethodPost, "/api/auth/logout", "", map[string]string{"email": "admin@example.com"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(t, http.MethodPost, "/api/auth/logout", user, map[string]string{"email": "admin@example.com"})
	assert.Equal(t, http.StatusOK, code)

	code, body := api.do(t, http.MethodPut, "/api/story/toggle-live/missing", admin, nil)
	assert.Equal(t, http.StatusNotFound, code, body.Message)
	code, _ = api.do(t, http.MethodGet, "/api/auth/profile", user, nil)
	assert.Equal(t, http.StatusOK, code, "a mismatched email leaves the caller logged in")

	code, _ = api.do(t, http.MethodPost, "/api/auth/logout", admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(t, http.MethodPut, "/api/story/toggle-live/missing", admin, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestStorySearch(t *testing.T) {
	api := newTestAPI(t)

	code, body := api.do(t, http.MethodGet, "/api/story/search?q=luna", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(body.Data))

	for _, size := range []string{"abc", "0", "-3"} {
		code, body = api.do(t, http.MethodGet, "/api/story/search?q=luna&size="+size, "", nil)
		assert.Equal(t, http.StatusBadRequest, code, size)
		assert.Equal(t, "size must be a positive integer", body.Message)
	}
	code, _ = api.do(t, http.MethodGet, "/api/story/search?q=luna&size=5", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestPasswordReset(t *testing.T) {
	api := newTestAPI(t)
	creds := map[string]string{"email": "sol@example.com", "password": "secret1"}
	code, _ := api.do(t, http.MethodPost, "/api/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, code)
	token := api.login(t, "sol@example.com", "secret1")

	code, body := api.do(t, http.MethodPost, "/api/auth/send-otp", "", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "email not registered", body.Message)

	code, _ = api.do(t, http.MethodPost, "/api/auth/send-otp", "", map[string]string{"email": "sol@example.com"})
	require.Equal(t, http.StatusOK, code)
	otp := api.codes.get("sol@example.com")
	require.Len(t, otp, 6)

	reset := map[string]string{"email": "sol@example.com", "otp": otp, "newPassword": "fresh-pass"}
	code, body = api.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{"email": "sol@example.com", "otp": otp, "newPassword": "123"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "password must be minimum 6 characters", body.Message)

	code, _ = api.do(t, http.MethodPost, "/api/auth/reset-password", "", reset)
	require.Equal(t, http.StatusOK, code)
	code, body = api.do(t, http.MethodPost, "/api/auth/reset-password", "", reset)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid or expired otp", body.Message)

	code, _ = api.do(t, http.MethodGet, "/api/auth/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	api.login(t, "sol@example.com", "fresh-pass")
}

func TestStoryAndBannerRoutes(t *testing.T) {
	api := newTestAPI(t)
	admin := api.admin(t)

	code, _ := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "u@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, code)
	user := api.login(t, "u@example.com", "secret1")

	png := func(field, name string) filePart {
		return filePart{field: field, name: name, contentType: "image/png", data: pngBytes}
	}
	add := func(token, number string, files ...filePart) (int, apiBody) {
		req := multipartRequest(t, http.MethodPost, "/api/story/add",
			map[string]string{"category": "anime", "characterName": "Luna", "number": number}, files...)
		return api.send(t, req, token)
	}

	code, _ = add(user, "1", png("media", "a.png"), png("profileImage", "cover.png"))
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = add("", "1", png("media", "a.png"), png("profileImage", "cover.png"))
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := add(admin, "1", png("media", "a.png"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "profile image required for new character", body.Message)

	code, body = add(admin, "1", png("media", "a.png"), png("profileImage", "cover.png"))
	require.Equal(t, http.StatusOK, code, body.Message)
	code, body = add(admin, "1", png("media", "b.png"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "story number already exists", body.Message)
	code, body = add(admin, "2", png("media", "c.png"), png("profileImage", "other.png"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "cover already set", body.Message)
	code, body = add(admin, "9", png("media", "d.png"))
	assert.Equal(t, http.StatusBadRequest, code)
	code, body = add(admin, "2")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "story media required", body.Message)

	code, body = api.do(t, http.MethodGet, "/api/story?category=anime", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(body.Data))

	code, body = api.do(t, http.MethodGet, "/api/story", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "category required", body.Message)

	var stored []struct {
		ID string `json:"id"`
	}
	code, body = api.do(t, http.MethodPut, "/api/story/toggle-live/missing", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	id := api.storyID(t, "anime", "Luna")
	code, body = api.do(t, http.MethodPut, "/api/story/toggle-live/"+id, admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"isLive":true}`, string(body.Data))

	code, body = api.do(t, http.MethodGet, "/api/story?category=anime", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body.Data, &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, id, stored[0].ID)

	req := multipartRequest(t, http.MethodPut, "/api/story/update-cover/"+id, nil, png("profileImage", "new.png"))
	code, _ = api.send(t, req, admin)
	assert.Equal(t, http.StatusOK, code)
	req = multipartRequest(t, http.MethodPut, "/api/story/update-cover/"+id, nil)
	code, body = api.send(t, req, admin)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "image required", body.Message)
	req = httptest.NewRequest(http.MethodPut, "/api/story/update-cover/"+id, strings.NewReader("garbage"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	code, body = api.send(t, req, admin)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid multipart body", body.Message)

	code, _ = api.do(t, http.MethodDelete, "/api/story/"+id, admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(t, http.MethodDelete, "/api/story/"+id, admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	// banners
	req = multipartRequest(t, http.MethodPost, "/api/banner", map[string]string{"category": "Anime"},
		png("desktopImage", "d.png"), png("mobileImage", "m.png"))
	code, body = api.send(t, req, admin)
	require.Equal(t, http.StatusOK, code, body.Message)
	var entry struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &entry))

	req = multipartRequest(t, http.MethodPost, "/api/banner", map[string]string{"category": "Anime"}, png("desktopImage", "d.png"))
	code, body = api.send(t, req, admin)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "images required", body.Message)

	code, body = api.do(t, http.MethodGet, "/api/banner/Anime", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body.Data), entry.ID)
	code, body = api.do(t, http.MethodGet, "/api/banner/Guys", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(body.Data))

	code, _ = api.do(t, http.MethodDelete, "/api/banner/"+entry.ID, admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(t, http.MethodDelete, "/api/banner/"+entry.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = api.do(t, http.MethodGet, "/api/character/Anime", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body.Data), "Luna")
}

var errPeek = errors.New("peek")

// storyID reads the aggregate id for key straight from the repository.
func (a *testAPI) storyID(t *testing.T, category, name string) string {
	t.Helper()
	var id string
	_, err := a.stories.Upsert(context.Background(), entity.StoryKey{Category: category, CharacterName: name},
		func(cur *entity.Story) (*entity.Story, error) {
			if cur != nil {
				id = cur.ID
			}
			return nil, errPeek
		})
	require.ErrorIs(t, err, errPeek)
	require.NotEmpty(t, id)
	return id
}

package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/cragbase/config"
	"github.com/princinho/cragbase/metrics"
	"github.com/princinho/cragbase/middleware"
	"github.com/princinho/cragbase/models"
	"github.com/princinho/cragbase/services"
	"github.com/princinho/cragbase/storage"
	"github.com/princinho/cragbase/testutil"
	"github.com/princinho/cragbase/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type app struct {
	handler http.Handler
	db      *testutil.MemoryDB
	clock   *testutil.Clock
}

func newApp(t *testing.T) *app {
	t.Helper()

	cfg := &config.Config{
		AllowedOrigins:    []string{"http://localhost:5173"},
		AccessTokenTTL:    time.Hour,
		RefreshTokenTTL:   7 * 24 * time.Hour,
		RefreshCookiePath: "/auth",
		DefaultQueryLimit: 10,
		MaxQueryLimit:     50,
	}
	clock := testutil.NewClock(time.Now())
	store, db := testutil.NewMemoryStore(clock.Now)
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	svc := services.New(services.Deps{
		Store:      store,
		Signer:     utils.NewTokenSigner("router-secret", cfg.AccessTokenTTL),
		RefreshTTL: cfg.RefreshTokenTTL,
		Media:      storage.NewMedia(testutil.NewMemoryObjects(), utils.NewFileValidator([]string{".png"}, []string{"image/png"}, 5), zap.NewNop()),
		Recorder:   collector,
		Log:        zap.NewNop(),
		Now:        clock.Now,
	})
	limiter := middleware.NewRateLimiter(middleware.PerMinute(600, 100), zap.NewNop())
	t.Cleanup(limiter.Stop)

	h := New(Deps{Config: cfg, Services: svc, Log: zap.NewNop(), Metrics: collector, Gatherer: reg, AuthLimiter: limiter})
	return &app{handler: h, db: db, clock: clock}
}

type client struct {
	t       *testing.T
	app     *app
	cookies map[string]*http.Cookie
}

func (a *app) client(t *testing.T) *client {
	return &client{t: t, app: a, cookies: map[string]*http.Cookie{}}
}

// do sends a request carrying the cookies the client holds and keeps the ones
// the response sets, honouring cookie paths the way a browser would.
func (cl *client) do(method, path string, body any) *httptest.ResponseRecorder {
	cl.t.Helper()

	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, path, nil)
	case *multipartBody:
		req = httptest.NewRequest(method, path, &b.buf)
		req.Header.Set("Content-Type", b.contentType)
	default:
		raw, err := json.Marshal(b)
		require.NoError(cl.t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range cl.cookies {
		if strings.HasPrefix(path, ck.Path) {
			req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
		}
	}

	w := httptest.NewRecorder()
	cl.app.handler.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(cl.cookies, ck.Name)
			continue
		}
		cl.cookies[ck.Name] = ck
	}
	return w
}

type multipartBody struct {
	buf         bytes.Buffer
	contentType string
}

func form(t *testing.T, fields map[string]string, files map[string][]byte) *multipartBody {
	t.Helper()
	b := &multipartBody{}
	w := multipart.NewWriter(&b.buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, content := range files {
		part, err := w.CreateFormFile(name, name+".png")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	b.contentType = w.FormDataContentType()
	return b
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestPing(t *testing.T) {
	a := newApp(t)
	w := a.client(t).do(http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestSessionLifecycle(t *testing.T) {
	a := newApp(t)
	cl := a.client(t)

	w := cl.do(http.MethodPost, "/auth/register", gin.H{"username": "alice", "email": "alice@example.com", "password": "hunter2"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, decode[map[string]string](t, w)["userId"])

	w = cl.do(http.MethodPost, "/auth/register", gin.H{"username": "alice", "email": "other@example.com", "password": "x"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = cl.do(http.MethodPost, "/auth/login", gin.H{"identifier": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	wrong := decode[map[string]string](t, w)["error"]
	w = cl.do(http.MethodPost, "/auth/login", gin.H{"identifier": "nobody", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, wrong, decode[map[string]string](t, w)["error"])

	w = cl.do(http.MethodPost, "/auth/login", gin.H{"identifier": "alice", "password": "hunter2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	access := cl.cookies[utils.AccessCookieName]
	refresh := cl.cookies[utils.RefreshCookieName]
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, "/auth", refresh.Path)
	assert.Equal(t, 3600, access.MaxAge)
	assert.Equal(t, 604800, refresh.MaxAge)

	w = cl.do(http.MethodGet, "/profile/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]any](t, w)
	assert.Equal(t, "alice", me["username"])
	assert.NotContains(t, me, "passwordHash")

	oldRefresh := refresh.Value
	w = cl.do(http.MethodPost, "/auth/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEqual(t, oldRefresh, cl.cookies[utils.RefreshCookieName].Value)

	// replaying the consumed token fails
	assert.Equal(t, http.StatusUnauthorized, refreshWith(a, oldRefresh).Code)

	// the email works as identifier too, in a second session
	other := a.client(t)
	w = other.do(http.MethodPost, "/auth/login", gin.H{"identifier": "alice@example.com", "password": "hunter2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusOK, other.do(http.MethodGet, "/profile/me", nil).Code)
	assert.Equal(t, http.StatusOK, other.do(http.MethodPost, "/auth/logout", nil).Code)

	current := cl.cookies[utils.RefreshCookieName].Value
	w = cl.do(http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, cl.cookies)
	assert.Empty(t, a.db.Tokens)
	assert.Equal(t, http.StatusUnauthorized, refreshWith(a, current).Code)
	assert.Equal(t, http.StatusUnauthorized, refreshWith(a, oldRefresh).Code)

	w = cl.do(http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = cl.do(http.MethodGet, "/profile/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// refreshWith posts to /auth/refresh carrying only the given refresh cookie.
func refreshWith(a *app, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: utils.RefreshCookieName, Value: value})
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, a *app, name string) *client {
	t.Helper()
	cl := a.client(t)
	w := cl.do(http.MethodPost, "/auth/register", gin.H{"username": name, "email": name + "@example.com", "password": "pw-" + name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = cl.do(http.MethodPost, "/auth/login", gin.H{"identifier": name, "password": "pw-" + name})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return cl
}

func TestLikeRoute(t *testing.T) {
	a := newApp(t)
	alice := login(t, a, "alice")

	w := alice.do(http.MethodPost, "/routes", form(t, map[string]string{
		"title": "Crack", "description": "Hand jams", "difficultyLevel": "6b",
		"climbType": "trad", "geoLocation": "Indian Creek", "accessCost": "0",
	}, map[string][]byte{"images": testutil.PNG}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	route := decode[models.Route](t, w)
	require.Len(t, route.Images, 1)

	path := "/routes/" + route.ID.Hex()
	assert.Equal(t, http.StatusOK, alice.do(http.MethodPost, path+"/like", nil).Code)
	assert.Equal(t, http.StatusConflict, alice.do(http.MethodPost, path+"/like", nil).Code)

	w = alice.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.Route](t, w).Likes)

	w = alice.do(http.MethodGet, "/routes/liked", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Route](t, w), 1)

	assert.Equal(t, http.StatusOK, alice.do(http.MethodPost, path+"/unlike", nil).Code)
	assert.Equal(t, http.StatusNotFound, alice.do(http.MethodPost, path+"/unlike", nil).Code)

	assert.Equal(t, http.StatusBadRequest, alice.do(http.MethodPost, "/routes/not-an-id/like", nil).Code)
	assert.Equal(t, http.StatusNotFound, alice.do(http.MethodPost, "/routes/"+bson.NewObjectID().Hex()+"/like", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.client(t).do(http.MethodPost, path+"/like", nil).Code)

	w = alice.do(http.MethodGet, "/routes?limit=500", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[models.Page[models.Route]](t, w)
	assert.Equal(t, 50, page.Limit)
	assert.EqualValues(t, 1, page.Total)

	bob := login(t, a, "bob")
	assert.Equal(t, http.StatusForbidden, bob.do(http.MethodDelete, path, nil).Code)
	w = alice.do(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Route deleted.", decode[map[string]string](t, w)["message"])
	assert.Equal(t, http.StatusNotFound, alice.do(http.MethodGet, path, nil).Code)
}

func TestCommunityEndpoints(t *testing.T) {
	a := newApp(t)
	alice := login(t, a, "alice")
	bob := login(t, a, "bob")

	w := alice.do(http.MethodPost, "/communities", form(t, map[string]string{"name": "Yosemite", "description": "Big walls"}, nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	community := decode[models.Community](t, w)
	path := "/communities/" + community.ID.Hex()

	assert.Equal(t, http.StatusForbidden, alice.do(http.MethodPost, path+"/leave", nil).Code)
	assert.Equal(t, http.StatusOK, bob.do(http.MethodPost, path+"/join", nil).Code)
	assert.Equal(t, http.StatusConflict, bob.do(http.MethodPost, path+"/join", nil).Code)

	bobID := decode[map[string]any](t, bob.do(http.MethodGet, "/profile/me", nil))["id"].(string)
	assert.Equal(t, http.StatusOK, alice.do(http.MethodPost, path+"/admins/"+bobID+"/add", nil).Code)

	w = alice.do(http.MethodGet, path+"/admins", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]string](t, w), 2)

	assert.Equal(t, http.StatusOK, alice.do(http.MethodPost, path+"/members/"+bobID+"/remove", nil).Code)
	w = alice.do(http.MethodGet, path, nil)
	assert.Equal(t, 1, decode[models.Community](t, w).MemberCount)
}

func TestSearchEndpoint(t *testing.T) {
	a := newApp(t)
	cl := a.client(t)

	assert.Equal(t, http.StatusBadRequest, cl.do(http.MethodGet, "/search", nil).Code)
	assert.Equal(t, http.StatusBadRequest, cl.do(http.MethodGet, "/search?q=x&type=users", nil).Code)

	w := cl.do(http.MethodGet, "/search?q=anything", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[]}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	a := newApp(t)
	login(t, a, "alice")

	w := a.client(t).do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `cragbase_auth_events_total{event="login",outcome="ok"} 1`)
	assert.Contains(t, body, "cragbase_http_request_duration_seconds")
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	a := newApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "http://evil.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

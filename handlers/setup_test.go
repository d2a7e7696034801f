package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"p9e.in/fcrm/config"
	"p9e.in/fcrm/handlers"
	"p9e.in/fcrm/middleware"
	"p9e.in/fcrm/models"
	"p9e.in/fcrm/pkg/cache"
	"p9e.in/fcrm/pkg/notify"
	"p9e.in/fcrm/pkg/storage"
	"p9e.in/fcrm/routes"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, n notify.Notice) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// memCache is a map-backed cache.Cache that round-trips values through JSON
// like the Redis one does.
type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

var _ cache.Cache = (*memCache)(nil)

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	raw, ok := c.items[key]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.items[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

type testEnv struct {
	t        *testing.T
	db       *gorm.DB
	router    http.Handler
	notifier  *mockNotifier
	cache     *memCache
	uploadDir string

	admin   *models.User
	officer *models.User
	citizen *models.User
}

const testPassword = "password1"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	middleware.Configure("test-secret", time.Hour)

	db, err := config.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, config.Migrations(db))
	require.NoError(t, config.RunAllSeeding(db))

	env := &testEnv{t: t, db: db, notifier: &mockNotifier{}, cache: newMemCache(), uploadDir: t.TempDir()}
	env.admin, err = config.CreateUser(db, "Admin", "admin@example.org", testPassword, models.RoleSuperAdmin)
	require.NoError(t, err)
	env.officer, err = config.CreateUser(db, "Officer", "officer@example.org", testPassword, models.RoleFCMUser)
	require.NoError(t, err)
	env.citizen, err = config.CreateUser(db, "Citizen", "citizen@example.org", testPassword, models.RoleRegisteredUser)
	require.NoError(t, err)

	h := handlers.New(db, handlers.Options{
		Store:    storage.NewLocalStore(env.uploadDir, "/uploads"),
		Notifier: env.notifier,
		Cache:    env.cache,
		OrgName:  "Test Org",
	})
	env.router = routes.RegisterRoutes(h, db, routes.Options{})
	t.Cleanup(func() { env.notifier.AssertExpectations(t) })
	return env
}

func (e *testEnv) token(u *models.User) string {
	e.t.Helper()
	tok, err := middleware.GenerateToken(u)
	require.NoError(e.t, err)
	return tok
}

// do sends a JSON request as u (nil for anonymous).
func (e *testEnv) do(method, path string, body interface{}, u *models.User) *httptest.ResponseRecorder {
	e.t.Helper()
	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(e.t, err)
			rdr = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.serve(req, u)
}

func (e *testEnv) serve(req *http.Request, u *models.User) *httptest.ResponseRecorder {
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(u))
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// multipartRequest builds a multipart request with fields and files keyed by
// form field name.
func (e *testEnv) multipartRequest(path string, fields map[string]string, files map[string][]byte) *http.Request {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(e.t, mw.WriteField(k, v))
	}
	for name, content := range files {
		fw, err := mw.CreateFormFile(name, "evidence.png")
		require.NoError(e.t, err)
		_, err = fw.Write(content)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// createComplaint registers a complaint through the JSON endpoint and returns its id.
func (e *testEnv) createComplaint(u *models.User, body map[string]interface{}) string {
	e.t.Helper()
	if body == nil {
		body = map[string]interface{}{}
	}
	if _, ok := body["summary_en"]; !ok {
		body["summary_en"] = "Hand pump in the village is broken"
	}
	rec := e.do(http.MethodPost, "/api/feedback/create", body, u)
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(e.t, rec)["complaintId"].(string)
}

func (e *testEnv) complaint(id string) models.Complaint {
	e.t.Helper()
	var c models.Complaint
	require.NoError(e.t, e.db.First(&c, "id = ?", id).Error)
	return c
}

func (e *testEnv) logActions(id string) []string {
	e.t.Helper()
	var actions []string
	require.NoError(e.t, e.db.Model(&models.ComplaintLog{}).
		Where("complaint_id = ?", id).Order("created_at ASC").
		Pluck("action", &actions).Error)
	return actions
}

// uploads lists the files currently in the upload directory.
func (e *testEnv) uploads() []string {
	e.t.Helper()
	entries, err := os.ReadDir(e.uploadDir)
	require.NoError(e.t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

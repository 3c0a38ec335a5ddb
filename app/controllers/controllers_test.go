package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/deadline-assistant/deadline-assistant/app/models"
	"github.com/deadline-assistant/deadline-assistant/app/repository"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/database/dbtest"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/usercontext"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	repos *repository.Repositories
	user  *models.User
}

// newTestEnv returns an app whose requests are authenticated as a fresh user.
// Send X-Test-User to act as someone else.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	repos := repository.NewRepositories(db)

	user, err := models.CreateUser("student@example.com", "correct-horse")
	require.NoError(t, err)
	require.NoError(t, repos.User.Create(context.Background(), user))

	app := fiber.New(fiber.Config{ErrorHandler: apperror.Handler})
	app.Use(func(c *fiber.Ctx) error {
		userID := user.ID
		if other := c.Get("X-Test-User"); other != "" {
			userID = other
		}
		usercontext.Set(c, usercontext.UserContext{UserID: userID, Email: user.Email, IsLoggedIn: true})
		return c.Next()
	})
	return &testEnv{app: app, db: db, repos: repos, user: user}
}

type response struct {
	Status int
	Body   map[string]any
	Raw    []byte
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return send(t, e.app, req)
}

func send(t *testing.T, app *fiber.App, req *http.Request) response {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := response{Status: resp.StatusCode, Raw: raw}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out.Body)
	}
	return out
}

func (r response) item(t *testing.T) map[string]any {
	t.Helper()
	v, ok := r.Body["item"].(map[string]any)
	require.True(t, ok, "no item in %s", string(r.Raw))
	return v
}

func (r response) items(t *testing.T) []any {
	t.Helper()
	v, ok := r.Body["items"].([]any)
	require.True(t, ok, "no items in %s", string(r.Raw))
	return v
}

type recordedMetric struct {
	kind   string
	label  string
	result string
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []recordedMetric
}

func (f *fakeRecorder) RecordWebhookEvent(eventType, result string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, recordedMetric{kind: "webhook", label: eventType, result: result})
}

func (f *fakeRecorder) RecordAIDraft(result string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, recordedMetric{kind: "ai", result: result})
}

func (f *fakeRecorder) results(kind string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.records {
		if r.kind == kind {
			out = append(out, r.result)
		}
	}
	return out
}

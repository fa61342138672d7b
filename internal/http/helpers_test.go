package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
	"storefront/internal/server"
)

// newApp wires the full server against an in-memory database. env entries
// override the configuration before it is loaded.
func newApp(t *testing.T, env map[string]string) (*fiber.App, *server.Stack) {
	t.Helper()
	t.Setenv("DB_DSN", ":memory:")
	t.Setenv("TEMPLATES_DIR", "../../web/templates")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("RATE_LIMIT", "1000")
	t.Setenv("SEARCH_DEBOUNCE", "0s")
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg := config.Load()

	stack, err := server.Build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stack.Close() })
	return server.New(cfg, stack.Services), stack
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// client is one browser: it keeps the sid and csrf_ cookies from its first
// page view and echoes the token header on every request.
type client struct {
	t    *testing.T
	app  *fiber.App
	sid  string
	csrf string
}

func newClient(t *testing.T, app *fiber.App) *client {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	c := &client{t: t, app: app, sid: extractCookie(resp, "sid"), csrf: extractCookie(resp, "csrf_")}
	require.NotEmpty(t, c.sid, "sid cookie missing")
	require.NotEmpty(t, c.csrf, "csrf cookie missing")
	return c
}

func (c *client) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: "sid", Value: c.sid})
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: c.csrf})
	req.Header.Set(server.CSRFHeader, c.csrf)
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	return resp
}

func (c *client) get(path string) *http.Response { return c.do("GET", path, nil) }

func (c *client) post(path string, body any) *http.Response { return c.do("POST", path, body) }

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

type logEntry struct {
	Level   string         `json:"level"`
	Action  string         `json:"action"`
	Session string         `json:"session"`
	Fields  map[string]any `json:"fields"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

// captureLogs collects the JSON log lines written while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	buf := &lockedBuf{}
	oldW, oldFlags := log.Writer(), log.Flags()
	log.SetOutput(buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	buf.mu.Lock()
	defer buf.mu.Unlock()
	var out []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		var e logEntry
		if json.Unmarshal([]byte(strings.TrimSpace(line)), &e) == nil && e.Action != "" {
			out = append(out, e)
		}
	}
	return out
}

func hasAction(entries []logEntry, action string) bool {
	for _, e := range entries {
		if e.Action == action {
			return true
		}
	}
	return false
}

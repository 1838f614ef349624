package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// lockedBuffer is written from server goroutines in the socket test.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// lines decodes every JSON log line written so far.
func (b *lockedBuffer) lines(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	raw := b.buf.String()
	b.mu.Unlock()

	var out []map[string]any
	sc := bufio.NewScanner(strings.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("non-JSON log line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

// accessLine returns the last "request" line for path, or nil.
func (b *lockedBuffer) accessLine(t *testing.T, path string) map[string]any {
	t.Helper()
	var found map[string]any
	for _, l := range b.lines(t) {
		if l["message"] == "request" && l["path"] == path {
			found = l
		}
	}
	return found
}

func captureLog(t *testing.T) *lockedBuffer {
	t.Helper()
	buf := &lockedBuffer{}
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(buf)
	return buf
}

func newLoggedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger(), Recovery())
	return r
}

func TestRequestID(t *testing.T) {
	r := newLoggedRouter()
	var seen string
	r.GET("/rid", func(c *gin.Context) {
		v, _ := c.Get(requestIDKey)
		seen = asString(v)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rid", nil))
	if gen := w.Header().Get(requestIDHeader); gen == "" || gen != seen {
		t.Fatalf("generated id: header=%q ctx=%q", gen, seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/rid", nil)
	req.Header.Set("x-request-id", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "abc-123" || seen != "abc-123" {
		t.Fatalf("propagated id: header=%q ctx=%q", got, seen)
	}
}

func TestLogger_LevelsByOutcome(t *testing.T) {
	buf := captureLog(t)
	r := newLoggedRouter()
	r.GET("/rooms/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/forbidden", func(c *gin.Context) { c.Status(http.StatusForbidden) })
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	r.GET("/errs", func(c *gin.Context) {
		_ = c.Error(http.ErrHandlerTimeout)
		c.Status(http.StatusOK)
	})

	cases := []struct {
		target, path, level string
	}{
		{"/rooms/3", "/rooms/:id", "info"},
		{"/forbidden", "/forbidden", "warn"},
		{"/broken", "/broken", "error"},
		{"/errs", "/errs", "error"},
		{"/unrouted", "/unrouted", "warn"}, // 404 falls back to the raw path
	}
	for _, tc := range cases {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tc.target, nil))
		line := buf.accessLine(t, tc.path)
		if line == nil {
			t.Fatalf("%s: no access line", tc.target)
		}
		if line["level"] != tc.level {
			t.Fatalf("%s: level=%v; want %s", tc.target, line["level"], tc.level)
		}
		if line["request_id"] == "" || line["latency"] == nil {
			t.Fatalf("%s: missing request fields: %v", tc.target, line)
		}
	}
	if errs := buf.accessLine(t, "/errs")["errors"]; errs == nil {
		t.Fatalf("expected gin errors on the access line")
	}
}

func TestLogger_UserIDOnlyAfterAuth(t *testing.T) {
	buf := captureLog(t)
	r := newLoggedRouter()
	r.GET("/me", func(c *gin.Context) {
		c.Set(ctxKeyUserID, uint(42))
		c.Status(http.StatusOK)
	})
	r.GET("/anon", func(c *gin.Context) { c.Status(http.StatusUnauthorized) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/me", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/anon", nil))

	if got := buf.accessLine(t, "/me")["user_id"]; got != float64(42) {
		t.Fatalf("user_id = %v; want 42", got)
	}
	if _, ok := buf.accessLine(t, "/anon")["user_id"]; ok {
		t.Fatalf("unauthenticated request must not carry user_id")
	}
}

func TestLogger_MasksCredentialQuery(t *testing.T) {
	buf := captureLog(t)
	r := newLoggedRouter()
	r.GET("/ws", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/search", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ws?token=eyJhbGciOi.secret.sig&x=1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/search?access_token=abc&page=2", nil))

	if q := buf.accessLine(t, "/ws")["query"]; q != "token=[REDACTED]&x=1" {
		t.Fatalf("ws query = %v", q)
	}
	if q := buf.accessLine(t, "/search")["query"]; q != "access_token=[REDACTED]&page=2" {
		t.Fatalf("search query = %v", q)
	}
}

func TestLogger_TruncatesLongQuery(t *testing.T) {
	buf := captureLog(t)
	r := newLoggedRouter()
	r.GET("/rooms", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/rooms?q="+strings.Repeat("a", 3*maxQueryLogLength), nil))

	q, _ := buf.accessLine(t, "/rooms")["query"].(string)
	if len(q) != maxQueryLogLength+len("…") || !strings.HasSuffix(q, "…") {
		t.Fatalf("query not truncated: len=%d", len(q))
	}
}

// An upgraded socket is logged once it closes, with the 101 the handler
// recorded before hijacking.
func TestLogger_WebSocketLoggedAs101(t *testing.T) {
	buf := captureLog(t)
	r := newLoggedRouter()
	up := websocket.Upgrader{}
	r.GET("/ws", func(c *gin.Context) {
		c.Set(ctxKeyUserID, uint(7))
		c.Status(http.StatusSwitchingProtocols)
		conn, err := up.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?token=s3cret", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if buf.accessLine(t, "/ws") != nil {
		t.Fatalf("socket logged before it closed")
	}
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	var line map[string]any
	for line == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
		line = buf.accessLine(t, "/ws")
	}
	if line == nil {
		t.Fatalf("no access line after socket closed")
	}
	if line["status"] != float64(http.StatusSwitchingProtocols) || line["user_id"] != float64(7) || line["level"] != "info" {
		t.Fatalf("unexpected socket access line: %v", line)
	}
	if line["query"] != "token=[REDACTED]" {
		t.Fatalf("token leaked: %v", line["query"])
	}
}

func TestRecovery(t *testing.T) {
	buf := captureLog(t)
	r := newLoggedRouter()
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })
	r.GET("/late", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("after write")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(requestIDHeader, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["code"] != "internal_error" || body["request_id"] != "rid-1" {
		t.Fatalf("envelope = %v", body)
	}

	// Once bytes are out the envelope cannot be written.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/late", nil))
	if w.Body.String() != "partial" {
		t.Fatalf("body = %q", w.Body.String())
	}

	var panics int
	for _, l := range buf.lines(t) {
		if l["message"] == "panic recovered" {
			panics++
		}
	}
	if panics != 2 {
		t.Fatalf("panic lines = %d; want 2", panics)
	}
}

func TestLoggerFrom_FallsBackToGlobal(t *testing.T) {
	buf := captureLog(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/bare", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("no middleware")
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bare", nil))

	lines := buf.lines(t)
	if len(lines) != 1 || lines[0]["message"] != "no middleware" {
		t.Fatalf("lines = %v", lines)
	}
}

func TestTruncateAndAsString(t *testing.T) {
	if got := truncate("abcdef", 3); got != "abc…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Fatalf("truncate(limit 0) = %q", got)
	}
	if asString(42) != "" || asString("x") != "x" {
		t.Fatalf("asString mismatch")
	}
}

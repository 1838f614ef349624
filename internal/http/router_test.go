package httpapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-chat-relay/internal/auth"
	"github.com/tbourn/go-chat-relay/internal/chathub"
	"github.com/tbourn/go-chat-relay/internal/config"
	"github.com/tbourn/go-chat-relay/internal/domain"
)

// --- fakes satisfying the handler service contracts ---

type stubRooms struct{}

func (stubRooms) CreateRoom(_ context.Context, ids []uint) (*domain.ChatRoom, bool, error) {
	return &domain.ChatRoom{ID: 1}, true, nil
}

func (stubRooms) RoomsForUser(context.Context, uint) ([]domain.ChatRoom, error) {
	return []domain.ChatRoom{{ID: 1}, {ID: 2}}, nil
}

func (stubRooms) RoomsStats(context.Context, uint) (int64, *time.Time, error) { return 2, nil, nil }

func (stubRooms) GetRoom(_ context.Context, id, _ uint) (*domain.ChatRoom, error) {
	return &domain.ChatRoom{ID: id}, nil
}

func (stubRooms) IsMember(context.Context, uint, uint) (bool, error) { return true, nil }
func (stubRooms) Participants(context.Context, uint) ([]uint, error) { return nil, nil }

type stubMessages struct{}

func (stubMessages) History(context.Context, uint, uint, int, int) ([]domain.Message, int64, error) {
	return []domain.Message{}, 0, nil
}

func (stubMessages) HistoryStats(context.Context, uint) (int64, *time.Time, error) { return 0, nil, nil }

func (stubMessages) Send(context.Context, uint, uint, string) (*domain.Message, error) {
	return &domain.Message{ID: 1}, nil
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		RateRPS:     100,
		RateBurst:   10,
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
		WS:          config.WSConfig{SendBuffer: 8, MaxMessageBytes: 4096, WriteWait: time.Second, PongWait: 10 * time.Second, EventsPerSecond: 50, EventBurst: 50},
	}
}

func newEngine(t *testing.T, cfg config.Config) (*gin.Engine, *chathub.Manager, *auth.Validator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	v, err := auth.NewValidator("router-secret", "")
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	hub := chathub.NewManager(stubRooms{}, stubMessages{}, nil, zerolog.Nop())
	r := gin.New()
	RegisterRoutes(r, Deps{Rooms: stubRooms{}, Messages: stubMessages{}, Hub: hub, Auth: v}, cfg)
	return r, hub, v
}

func serve(r http.Handler, method, path string, hdr ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T, v *auth.Validator, uid uint) string {
	t.Helper()
	tok, err := v.Issue(uid, "", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return "Bearer " + tok
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r, _, _ := newEngine(t, testConfig())

	w := serve(r, http.MethodGet, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header")
	}

	w = serve(r, http.MethodGet, "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "chat_ws_connections_active") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	if w := serve(r, http.MethodGet, "/nope"); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "/health"); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS.AllowedOrigins = []string{"http://example.com"}
	r, _, _ := newEngine(t, cfg)

	w := serve(r, http.MethodGet, "/health", "Origin", "http://example.com")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func TestRegisterRoutes_APIRequiresBearer(t *testing.T) {
	r, _, v := newEngine(t, testConfig())

	if w := serve(r, http.MethodGet, "/api/v1/rooms"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/v1/rooms", "Authorization", "Bearer nope"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", w.Code)
	}
	// Query tokens are only honoured on /ws.
	tok := strings.TrimPrefix(bearer(t, v, 7), "Bearer ")
	if w := serve(r, http.MethodGet, "/api/v1/rooms?token="+tok); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for query token on REST, got %d", w.Code)
	}

	w := serve(r, http.MethodGet, "/api/v1/rooms", "Authorization", bearer(t, v, 7))
	if w.Code != http.StatusOK || w.Header().Get("ETag") == "" {
		t.Fatalf("GET /rooms = %d etag=%q", w.Code, w.Header().Get("ETag"))
	}
	if w := serve(r, http.MethodGet, "/api/v1/users/7/presence", "Authorization", bearer(t, v, 9)); w.Code != http.StatusOK {
		t.Fatalf("GET presence = %d", w.Code)
	}
}

func TestRegisterRoutes_GzipOnAPI(t *testing.T) {
	r, _, v := newEngine(t, testConfig())

	w := serve(r, http.MethodGet, "/api/v1/rooms", "Authorization", bearer(t, v, 7), "Accept-Encoding", "gzip")
	if w.Code != http.StatusOK || w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip response, got %d %q", w.Code, w.Header().Get("Content-Encoding"))
	}
}

func TestRegisterRoutes_RateLimitPerUser(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS, cfg.RateBurst = 0.001, 1
	r, _, v := newEngine(t, cfg)

	alice := bearer(t, v, 7)
	if w := serve(r, http.MethodGet, "/api/v1/rooms", "Authorization", alice); w.Code != http.StatusOK {
		t.Fatalf("first request = %d", w.Code)
	}
	w := serve(r, http.MethodGet, "/api/v1/rooms", "Authorization", alice)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 429 with Retry-After, got %d", w.Code)
	}
	// A different user has their own bucket.
	if w := serve(r, http.MethodGet, "/api/v1/rooms", "Authorization", bearer(t, v, 9)); w.Code != http.StatusOK {
		t.Fatalf("other user = %d", w.Code)
	}
}

func TestRegisterRoutes_Swagger(t *testing.T) {
	r, _, _ := newEngine(t, testConfig())
	if w := serve(r, http.MethodGet, "/swagger/doc.json"); w.Code != http.StatusNotFound {
		t.Fatalf("swagger disabled expected 404, got %d", w.Code)
	}

	cfg := testConfig()
	cfg.SwaggerEnabled = true
	r, _, _ = newEngine(t, cfg)
	w := serve(r, http.MethodGet, "/swagger/doc.json")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/rooms") {
		t.Fatalf("swagger doc = %d", w.Code)
	}
}

func TestRegisterRoutes_WebSocket(t *testing.T) {
	r, hub, v := newEngine(t, testConfig())
	srv := httptest.NewServer(r)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(base, nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake, got err=%v resp=%v", err, resp)
	}

	tok := strings.TrimPrefix(bearer(t, v, 7), "Bearer ")
	conn, _, err := websocket.DefaultDialer.Dial(base+"?token="+tok, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for !hub.IsOnline(7) {
		if time.Now().After(deadline) {
			t.Fatalf("user 7 never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		w := serve(r, http.MethodGet, path)
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, w.Code, w.Body.String())
		}
	}
}

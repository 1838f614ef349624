// Package httpapi wires the HTTP transport (Gin) to the relay: REST room and
// history endpoints, the WebSocket upgrade route, and the cross-cutting
// middleware (tracing, correlation IDs, redacted logging, panic recovery,
// metrics, rate limiting, CORS, security headers, bearer auth).
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/tbourn/go-chat-relay/docs"
	"github.com/tbourn/go-chat-relay/internal/chathub"
	"github.com/tbourn/go-chat-relay/internal/config"
	"github.com/tbourn/go-chat-relay/internal/http/handlers"
	"github.com/tbourn/go-chat-relay/internal/http/middleware"
)

// Deps are the application components the routes are mounted on.
type Deps struct {
	Rooms    handlers.RoomService
	Messages handlers.MessageService
	Hub      *chathub.Manager
	Auth     middleware.TokenValidator
}

var corsAllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match"}

// RegisterRoutes attaches all middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with credential and PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS and security headers
//
// Bearer auth and the per-user rate limiter run per group so the limiter can
// key on the authenticated user. /ws sits outside the gzip group: compressing
// an upgraded connection would corrupt the frames.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "ETag", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "ETag", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(deps.Rooms, deps.Messages, deps.Hub, handlers.WSOptions{
		AllowedOrigins: cfg.WS.AllowedOrigins,
		Client: chathub.ClientOptions{
			SendBuffer:      cfg.WS.SendBuffer,
			MaxMessageBytes: cfg.WS.MaxMessageBytes,
			WriteWait:       cfg.WS.WriteWait,
			PongWait:        cfg.WS.PongWait,
			EventsPerSecond: cfg.WS.EventsPerSecond,
			EventBurst:      cfg.WS.EventBurst,
		},
	})
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	// WebSocket upgrade: the token may travel in the query string because
	// browsers cannot set headers on the handshake.
	r.GET("/ws",
		middleware.RequireAuth(deps.Auth, middleware.AuthOptions{AllowQueryToken: true}),
		rl.Handler(),
		h.ServeWS,
	)

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(
		middleware.RequireAuth(deps.Auth, middleware.AuthOptions{}),
		rl.Handler(),
		gzip.Gzip(gzip.DefaultCompression),
	)
	{
		api.POST("/rooms", h.CreateRoom)
		api.GET("/rooms", h.ListRooms)
		api.GET("/rooms/:id", h.GetRoom)
		api.GET("/rooms/:id/messages", h.ListMessages)

		api.GET("/users/:id/presence", h.GetPresence)
	}
}

// limitBody caps the request body for all endpoints to maxBytes using
// http.MaxBytesReader. Requests exceeding the cap make downstream reads fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

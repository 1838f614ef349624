package chathub

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ClientOptions tunes a single socket connection.
type ClientOptions struct {
	SendBuffer      int           // queued outbound events before the client counts as slow
	MaxMessageBytes int64         // inbound frame limit
	WriteWait       time.Duration // deadline for a single write
	PongWait        time.Duration // read deadline, extended on every pong
	EventsPerSecond float64       // inbound events per second; <= 0 disables limiting
	EventBurst      int
}

// DefaultClientOptions mirrors the configuration defaults.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		SendBuffer:      256,
		MaxMessageBytes: 16 << 10,
		WriteWait:       10 * time.Second,
		PongWait:        60 * time.Second,
		EventsPerSecond: 10,
		EventBurst:      20,
	}
}

// Client adapts a gorilla websocket connection to Conn. One goroutine reads
// and dispatches to the Manager, another drains the send queue.
type Client struct {
	userID  uint
	conn    *websocket.Conn
	hub     *Manager
	opts    ClientOptions
	send    chan Outbound
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient wraps an upgraded connection owned by userID.
func NewClient(hub *Manager, conn *websocket.Conn, userID uint, opts ClientOptions) *Client {
	def := DefaultClientOptions()
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = def.SendBuffer
	}
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = def.MaxMessageBytes
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = def.WriteWait
	}
	if opts.PongWait <= 0 {
		opts.PongWait = def.PongWait
	}

	c := &Client{
		userID: userID,
		conn:   conn,
		hub:    hub,
		opts:   opts,
		send:   make(chan Outbound, opts.SendBuffer),
		done:   make(chan struct{}),
		log:    hub.log.With().Uint("user_id", userID).Logger(),
	}
	if opts.EventsPerSecond > 0 {
		burst := opts.EventBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.EventsPerSecond), burst)
	}
	return c
}

// Send queues ev without blocking. It returns false once the client is
// closed or its queue is full.
func (c *Client) Send(ev Outbound) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// Close stops both pumps. Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

// Run registers the client with the hub, starts the write pump, and reads
// until the connection fails or is closed. The client is deregistered
// before Run returns.
func (c *Client) Run(ctx context.Context) {
	c.hub.AddUser(ctx, c.userID, c)
	go c.writePump()
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.RemoveUser(ctx, c.userID, c)
		c.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Msg("websocket read")
			}
			return
		}
		if c.limiter != nil && !c.limiter.Allow() {
			events.WithLabelValues("any", outcomeRejected).Inc()
			if !c.Send(ErrorEvent(ReasonRateLimited, 0)) {
				return
			}
			continue
		}
		c.hub.HandleMessage(ctx, c.userID, c, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.log.Debug().Err(err).Msg("websocket write")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

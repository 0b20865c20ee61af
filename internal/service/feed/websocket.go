package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"InvestAgent/internal/domain/models"
	drepo "InvestAgent/internal/domain/repository"
)

// WSStream implements a MarketStream over a trade WebSocket feed
// (Finnhub-compatible wire format: subscribe frames + trade batches).
type WSStream struct {
	name           string
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// NewWSStream creates a WebSocket market stream for the named provider.
func NewWSStream(name, apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration) *WSStream {
	return &WSStream{
		name:           name,
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Name returns the provider name this stream was registered under.
func (c *WSStream) Name() string { return c.name }

// Connect establishes the WebSocket connection.
func (c *WSStream) Connect(ctx context.Context) error {
	u := c.websocketURL
	if c.apiKey != "" {
		u = fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("%s connect: %w", c.name, err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("%s: connected", c.name)
	return nil
}

// Subscribe subscribes to configured symbols.
func (c *WSStream) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("%s not connected", c.name)
	}
	for _, s := range c.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
		log.Printf("%s: subscribed %s", c.name, s)
	}
	return nil
}

type wsTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string    `json:"type"`
	Data []wsTrade `json:"data"`
}

// Read streams normalized Tick events and errors.
func (c *WSStream) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("%s conn nil", c.name)
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("%s read: %w", c.name, err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-trade frames
					continue
				}
				if m.Type != "trade" {
					continue
				}
				for _, d := range m.Data {
					raw := &models.Tick{Symbol: d.S, Timestamp: d.T, Price: d.P, Volume: d.V, Source: c.name}
					tick, err := models.NormalizeTick(raw)
					if err != nil {
						continue
					}
					select {
					case ticks <- tick:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return ticks, errs
}

// Reconnect closes and reconnects.
func (c *WSStream) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close terminates the connection.
func (c *WSStream) Close() error {
	c.connected = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsConnected reports connection state.
func (c *WSStream) IsConnected() bool { return c.connected }

var _ drepo.MarketStream = (*WSStream)(nil)

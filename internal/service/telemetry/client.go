package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"GridPulse/internal/domain/models"
	drepo "GridPulse/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements an ObservationStream backed by the telemetry gateway
// WebSocket feed.
type Client struct {
	token          string
	websocketURL   string
	channels       []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new telemetry ObservationStream.
func New(token, websocketURL string, channels []string, reconnectDelay, pingInterval time.Duration) drepo.ObservationStream {
	return &Client{
		token:          token,
		websocketURL:   websocketURL,
		channels:       channels,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("telemetry connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("telemetry: connected")
	return nil
}

// Subscribe subscribes to configured channels.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("telemetry not connected")
	}
	for _, ch := range c.channels {
		msg := map[string]string{"type": "subscribe", "channel": ch}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", ch, err)
		}
		log.Printf("telemetry: subscribed %s", ch)
	}
	return nil
}

type tgPoint struct {
	M string  `json:"model_type"`
	S string  `json:"site_id"`
	F string  `json:"feature"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type tgMessage struct {
	Type string    `json:"type"`
	Data []tgPoint `json:"data"`
}

// Read streams Observation events and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.Observation, <-chan error) {
	obs := make(chan *models.Observation, 1024)
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
		defer close(obs)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("telemetry conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("telemetry read: %w", err)
					return
				}
				var m tgMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-telemetry frames
					continue
				}
				if m.Type != "telemetry" {
					continue
				}
				for _, d := range m.Data {
					mt, ok := models.NormalizeModelType(d.M)
					if !ok {
						continue
					}
					o := &models.Observation{
						ModelType: mt,
						SiteID:    d.S,
						Feature:   d.F,
						Value:     d.V,
						Timestamp: time.UnixMilli(d.T),
					}
					select {
					case obs <- o:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return obs, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }

package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
	"StockCast/pkg/logger"
)

// Stream is the live tick feed over the provider's WebSocket API.
type Stream struct {
	apiKey         string
	websocketURL   string
	tickers        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

func NewStream(apiKey, websocketURL string, tickers []string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) *Stream {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Stream{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		tickers:        tickers,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

func (s *Stream) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", s.websocketURL, s.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("marketdata connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	s.log.Info("marketdata stream connected")
	return nil
}

func (s *Stream) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	conn, connected := s.conn, s.connected
	s.mu.Unlock()
	if conn == nil || !connected {
		return fmt.Errorf("marketdata stream not connected")
	}
	for _, t := range s.tickers {
		msg := map[string]string{"type": "subscribe", "symbol": t}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
		s.log.Debug("subscribed", logger.String("ticker", t))
	}
	return nil
}

type wsTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	T int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string    `json:"type"`
	Data []wsTrade `json:"data"`
}

// Read streams ticks and errors. The tick channel drops on
// backpressure rather than stalling the read loop; the error channel
// closing means the connection is dead and needs Reconnect.
func (s *Stream) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 1024)
	errs := make(chan error, 1)

	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				conn := s.conn
				s.mu.Unlock()
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			s.mu.Lock()
			conn := s.conn
			s.mu.Unlock()
			if conn == nil {
				errs <- fmt.Errorf("marketdata conn nil")
				return
			}

			_, b, err := conn.ReadMessage()
			if err != nil {
				errs <- fmt.Errorf("marketdata read: %w", err)
				return
			}

			var m wsMessage
			if err := json.Unmarshal(b, &m); err != nil || m.Type != "trade" {
				continue // non-trade frames
			}
			for _, d := range m.Data {
				tick := &models.Tick{Ticker: d.S, Price: d.P, Timestamp: d.T / 1000}
				select {
				case ticks <- tick:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.reconnectDelay):
	}
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

var _ repository.PriceStream = (*Stream)(nil)

package binance

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSClient opens raw single-stream connections ("<url>/ws/<stream>").
// One client can serve any number of concurrent Stream calls.
type WSClient struct {
	url            string
	dialer         *websocket.Dialer
	reconnectDelay time.Duration
	logger         *zap.Logger
}

// NewWSClient creates a new WebSocket client with the given base URL and logger.
func NewWSClient(url string, reconnectDelay time.Duration, logger *zap.Logger) *WSClient {
	if reconnectDelay <= 0 {
		reconnectDelay = 3 * time.Second
	}
	return &WSClient{
		url: url,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: 10 * time.Second,
		},
		reconnectDelay: reconnectDelay,
		logger:         logger,
	}
}

// Stream connects to the named stream and hands every message to handle,
// reconnecting after read errors until ctx is cancelled. handle runs on the
// reading goroutine. Stream returns ctx.Err() once the connection is closed.
func (c *WSClient) Stream(ctx context.Context, stream string, handle func([]byte)) error {
	endpoint := fmt.Sprintf("%s/ws/%s", c.url, stream)
	log := c.logger.With(zap.String("stream", stream))

	for {
		conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("WebSocket dial failed, retrying", zap.Error(err), zap.Duration("delay", c.reconnectDelay))
		} else {
			log.Info("WebSocket connected")
			err = c.listen(ctx, conn, handle)
			if ctx.Err() != nil {
				log.Info("WebSocket closed")
				return ctx.Err()
			}
			log.Warn("WebSocket read error, reconnecting", zap.Error(err), zap.Duration("delay", c.reconnectDelay))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
		}
	}
}

// listen reads until the connection fails or ctx is cancelled. Cancellation
// closes the socket, which unblocks ReadMessage.
func (c *WSClient) listen(ctx context.Context, conn *websocket.Conn, handle func([]byte)) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		handle(msg)
	}
}

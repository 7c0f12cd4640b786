package ipc

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nstehr/vimy/vimy-host/wire"
)

const closeGrace = time.Second

// SocketTransport carries one wire message per binary websocket message.
type SocketTransport struct {
	conn *websocket.Conn
}

func NewSocketTransport(conn *websocket.Conn, maxFrame int) *SocketTransport {
	if maxFrame > 0 {
		conn.SetReadLimit(int64(wire.HeaderSize + maxFrame))
	}
	return &SocketTransport{conn: conn}
}

// DialSocket connects to a robot host's websocket endpoint.
func DialSocket(ctx context.Context, url string, maxFrame int) (*SocketTransport, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewSocketTransport(conn, maxFrame), nil
}

func (t *SocketTransport) Send(ctx context.Context, frame []byte) error {
	stop := bindDeadline(ctx, t.conn.SetWriteDeadline)
	err := t.conn.WriteMessage(websocket.BinaryMessage, frame)
	stop()
	if err = ctxErr(ctx, err); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (t *SocketTransport) Receive(ctx context.Context) ([]byte, error) {
	stop := bindDeadline(ctx, t.conn.SetReadDeadline)
	mt, data, err := t.conn.ReadMessage()
	stop()
	if err = ctxErr(ctx, err); err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	if mt != websocket.BinaryMessage {
		return nil, ErrTextMessage
	}
	return data, nil
}

// Close says goodbye to the peer, then drops the connection.
func (t *SocketTransport) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
	return t.conn.Close()
}

// SocketHandler upgrades engine connections and hands each one to serve.
type SocketHandler struct {
	upgrader websocket.Upgrader
	maxFrame int
	serve    func(ctx context.Context, t Transport)
}

func NewSocketHandler(maxFrame int, serve func(ctx context.Context, t Transport)) *SocketHandler {
	return &SocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		maxFrame: maxFrame,
		serve:    serve,
	}
}

func (h *SocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	t := NewSocketTransport(conn, h.maxFrame)
	defer t.Close()

	slog.Info("engine connected", "transport", "websocket", "remote", r.RemoteAddr)
	h.serve(r.Context(), t)
}

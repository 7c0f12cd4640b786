package ipc

import (
	"context"
	"net"
	"time"
)

// Transport moves whole wire messages between the robot host and the
// battle engine.
type Transport interface {
	Send(ctx context.Context, frame []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// StreamTransport frames messages over a byte stream such as a unix socket.
type StreamTransport struct {
	conn net.Conn
	// MaxFrame bounds incoming payloads; 0 means unlimited.
	MaxFrame int
}

func NewStreamTransport(conn net.Conn, maxFrame int) *StreamTransport {
	return &StreamTransport{conn: conn, MaxFrame: maxFrame}
}

func (t *StreamTransport) Send(ctx context.Context, frame []byte) error {
	stop := bindDeadline(ctx, t.conn.SetWriteDeadline)
	err := WriteFrame(t.conn, frame)
	stop()
	return ctxErr(ctx, err)
}

func (t *StreamTransport) Receive(ctx context.Context) ([]byte, error) {
	stop := bindDeadline(ctx, t.conn.SetReadDeadline)
	frame, err := ReadFrame(t.conn, t.MaxFrame)
	stop()
	if err = ctxErr(ctx, err); err != nil {
		return nil, err
	}
	return frame, nil
}

func (t *StreamTransport) Close() error { return t.conn.Close() }

// bindDeadline applies ctx's deadline through set and forces an immediate
// deadline when ctx is cancelled. The returned func clears both.
func bindDeadline(ctx context.Context, set func(time.Time) error) func() {
	if d, ok := ctx.Deadline(); ok {
		_ = set(d)
	}
	stopCancel := context.AfterFunc(ctx, func() { _ = set(time.Now()) })
	return func() {
		stopCancel()
		_ = set(time.Time{})
	}
}

// ctxErr prefers the context's error when it is what ended the I/O.
func ctxErr(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

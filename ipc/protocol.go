package ipc

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/gorilla/websocket"

	"github.com/nstehr/vimy/vimy-host/wire"
)

var (
	ErrFrameTooLarge = errors.New("ipc: frame exceeds size limit")
	ErrTextMessage   = errors.New("ipc: text message on a binary channel")
	ErrUnexpected    = errors.New("ipc: unexpected record")
)

// ReadFrame reads one whole wire message: the 12-byte header, then exactly
// the payload length it announces. maxFrame bounds the payload; 0 disables
// the check.
func ReadFrame(r io.Reader, maxFrame int) ([]byte, error) {
	head := make([]byte, wire.HeaderSize)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h, err := wire.ParseHeader(head)
	if err != nil {
		return nil, err
	}

	// A foreign byte order would make Length garbage, so stop before using it.
	if h.Mark != wire.OrderMark {
		return nil, fmt.Errorf("read header: %w: %#x", wire.ErrOrderMark, h.Mark)
	}
	if h.Length < 0 {
		return nil, fmt.Errorf("read header: %w: length %d", wire.ErrMalformed, h.Length)
	}
	if maxFrame > 0 && int(h.Length) > maxFrame {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, h.Length, maxFrame)
	}

	frame := make([]byte, wire.HeaderSize+int(h.Length))
	copy(frame, head)
	if _, err := io.ReadFull(r, frame[wire.HeaderSize:]); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return frame, nil
}

// IsClosed reports whether err means the peer went away rather than that
// it misbehaved.
func IsClosed(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

// WriteFrame writes an already encoded message in one call.
func WriteFrame(w io.Writer, frame []byte) error {
	if len(frame) < wire.HeaderSize {
		return fmt.Errorf("write frame: %w: %d bytes", wire.ErrTruncated, len(frame))
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

package agent

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
)

// outputBuffer collects the robot's console between turns.
type outputBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *outputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// drain returns everything written since the last drain.
func (b *outputBuffer) drain() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.buf.String()
	b.buf.Reset()
	return s
}

// Out is the robot's console. Whatever is written here goes to the engine
// with the next turn.
func (c *Controller) Out() io.Writer { return c.out }

// newDiagnostics logs into the robot console. Turn numbers matter there,
// wall-clock time does not.
func newDiagnostics(out *outputBuffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

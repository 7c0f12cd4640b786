package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nstehr/vimy/vimy-host/agent"
	"github.com/nstehr/vimy/vimy-host/config"
	"github.com/nstehr/vimy/vimy-host/ipc"
	"github.com/nstehr/vimy/vimy-host/rules"
	"github.com/nstehr/vimy/vimy-host/telemetry"
	"github.com/nstehr/vimy/vimy-host/turn"
	"github.com/nstehr/vimy/vimy-host/wire"
)

const banner = `
██╗   ██╗██╗███╗   ███╗██╗   ██╗
██║   ██║██║████╗ ████║╚██╗ ██╔╝
██║   ██║██║██╔████╔██║ ╚████╔╝
╚██╗ ██╔╝██║██║╚██╔╝██║  ╚██╔╝
 ╚████╔╝ ██║██║ ╚═╝ ██║   ██║
  ╚═══╝  ╚═╝╚═╝     ╚═╝   ╚═╝

Scripted Robot Host`

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	fmt.Println(banner)

	if err := run(cfg); err != nil {
		slog.Error("host stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Host) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, cfg, "vimy-host")
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			slog.Warn("trace flush failed", "error", err)
		}
	}()

	h, err := newHost(cfg)
	if err != nil {
		return err
	}
	slog.Info("starting vimy host", "script", h.prog.Script.Name, "protocol", cfg.ProtocolVersion,
		"encoding", cfg.TextEncoding, "tracing", cfg.Tracing())

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Socket != "" {
		if err := h.listenSocket(ctx, g, cfg.Socket); err != nil {
			return err
		}
	}
	if cfg.WebSocketAddr != "" {
		h.listenWebSocket(ctx, g, cfg.WebSocketAddr, cfg.WebSocketPath)
	}

	err = g.Wait()
	slog.Info("shutting down")
	return err
}

// host owns what every robot connection shares.
type host struct {
	prog     *rules.Program
	version  int32
	opts     []wire.Option
	maxFrame int
}

func newHost(cfg config.Host) (*host, error) {
	prog, err := loadScript(cfg.Script)
	if err != nil {
		return nil, err
	}
	version, err := cfg.Version()
	if err != nil {
		return nil, err
	}
	enc, err := cfg.Encoding()
	if err != nil {
		return nil, err
	}
	return &host{
		prog:     prog,
		version:  version,
		opts:     []wire.Option{wire.WithTextEncoding(enc)},
		maxFrame: cfg.MaxFrame,
	}, nil
}

func loadScript(path string) (*rules.Program, error) {
	if path == "" {
		return rules.Default()
	}
	return rules.LoadFile(path)
}

func (h *host) listenSocket(ctx context.Context, g *errgroup.Group, path string) error {
	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("clean up socket %s: %w", path, err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", path, err)
	}
	slog.Info("listening on domain socket", "path", path)

	g.Go(func() error {
		<-ctx.Done()
		listener.Close()
		os.Remove(path)
		return nil
	})
	g.Go(func() error {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				slog.Error("failed to accept connection", "error", err)
				continue
			}
			slog.Info("new connection accepted")
			g.Go(func() error {
				h.serve(ctx, ipc.NewStreamTransport(conn, h.maxFrame))
				return nil
			})
		}
	})
	return nil
}

func (h *host) listenWebSocket(ctx context.Context, g *errgroup.Group, addr, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, ipc.NewSocketHandler(h.maxFrame, h.serve))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g.Go(func() error {
		slog.Info("listening for websocket engines", "addr", addr, "path", path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("websocket server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// serve hosts the configured script for one engine connection.
func (h *host) serve(ctx context.Context, t ipc.Transport) {
	s, err := turn.NewSerializer(h.version, h.opts...)
	if err != nil {
		slog.Error("serializer setup failed", "error", err)
		t.Close()
		return
	}
	ch := ipc.NewChannel(t, s)
	defer ch.Close()

	if err := agent.Serve(ctx, ch, h.prog.Factory()); err != nil && ctx.Err() == nil {
		slog.Error("robot session failed", "robot", ch.Robot, "error", err)
		return
	}
	slog.Info("robot session ended", "robot", ch.Robot)
}

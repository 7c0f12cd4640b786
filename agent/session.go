package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nstehr/vimy/vimy-host/event"
	"github.com/nstehr/vimy/vimy-host/ipc"
	"github.com/nstehr/vimy/vimy-host/model"
)

// Factory builds a fresh robot for each round.
type Factory func(st *model.RobotStatics) (Robot, error)

// Serve hosts one robot over ch for as many rounds as the engine plays,
// returning nil when the engine hangs up between rounds.
func Serve(ctx context.Context, ch *ipc.Channel, newRobot Factory, opts ...Option) error {
	st, err := ch.Handshake(ctx)
	if err != nil {
		return err
	}
	slog.Info("robot joined", "robot", st.Name, "capabilities", event.CapabilitiesOf(st).String())

	for round := 1; ; round++ {
		robot, err := newRobot(st)
		if err != nil {
			return fmt.Errorf("build robot %s: %w", st.Name, err)
		}

		c := New(ch, st, opts...)
		if err := c.Run(ctx, robot); err != nil {
			if ipc.IsClosed(err) {
				slog.Info("engine closed the connection", "robot", st.Name, "rounds", round-1)
				return nil
			}
			return fmt.Errorf("round %d: %w", round, err)
		}
		slog.Info("round finished", "robot", st.Name, "round", round)
	}
}

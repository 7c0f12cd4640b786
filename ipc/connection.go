package ipc

import (
	"context"
	"fmt"

	"github.com/nstehr/vimy/vimy-host/model"
	"github.com/nstehr/vimy/vimy-host/turn"
	"github.com/nstehr/vimy/vimy-host/wire"
)

// Channel is the robot's side of one battle-engine connection. The engine
// opens with the robot's statics, then every turn is one ExecCommands
// answered by one ExecResults.
type Channel struct {
	t Transport
	s *wire.Serializer

	// Robot is the name from the handshake, kept for logging.
	Robot string
}

func NewChannel(t Transport, s *wire.Serializer) *Channel {
	return &Channel{t: t, s: s}
}

func (c *Channel) Serializer() *wire.Serializer { return c.s }

// Handshake waits for the engine to describe the robot it is hosting.
func (c *Channel) Handshake(ctx context.Context) (*model.RobotStatics, error) {
	st, err := receive[*model.RobotStatics](ctx, c, model.TagRobotStatics)
	if err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}
	c.Robot = st.Name
	return st, nil
}

// SubmitCommands encodes and sends one turn's commands.
func (c *Channel) SubmitCommands(ctx context.Context, cmds *turn.ExecCommands) error {
	frame, err := c.s.Marshal(model.TagExecCommands, cmds)
	if err != nil {
		return fmt.Errorf("submit commands: %w", err)
	}
	if err := c.t.Send(ctx, frame); err != nil {
		return fmt.Errorf("submit commands: %w", err)
	}
	return nil
}

// AwaitResult blocks until the engine answers the last submission.
func (c *Channel) AwaitResult(ctx context.Context) (*turn.ExecResults, error) {
	res, err := receive[*turn.ExecResults](ctx, c, model.TagExecResults)
	if err != nil {
		return nil, fmt.Errorf("await result: %w", err)
	}
	return res, nil
}

// SendStatics is the engine's half of Handshake.
func (c *Channel) SendStatics(ctx context.Context, st *model.RobotStatics) error {
	frame, err := c.s.Marshal(model.TagRobotStatics, st)
	if err != nil {
		return fmt.Errorf("send statics: %w", err)
	}
	return c.t.Send(ctx, frame)
}

// SendResults is the engine's half of AwaitResult.
func (c *Channel) SendResults(ctx context.Context, res *turn.ExecResults) error {
	frame, err := c.s.Marshal(model.TagExecResults, res)
	if err != nil {
		return fmt.Errorf("send results: %w", err)
	}
	return c.t.Send(ctx, frame)
}

// AwaitCommands is the engine's half of SubmitCommands.
func (c *Channel) AwaitCommands(ctx context.Context) (*turn.ExecCommands, error) {
	cmds, err := receive[*turn.ExecCommands](ctx, c, model.TagExecCommands)
	if err != nil {
		return nil, fmt.Errorf("await commands: %w", err)
	}
	return cmds, nil
}

func (c *Channel) Close() error { return c.t.Close() }

func receive[T any](ctx context.Context, c *Channel, want byte) (T, error) {
	var zero T
	frame, err := c.t.Receive(ctx)
	if err != nil {
		return zero, err
	}
	tag, rec, err := c.s.Unmarshal(frame)
	if err != nil {
		return zero, err
	}
	v, ok := rec.(T)
	if tag != want || !ok {
		return zero, fmt.Errorf("%w: tag %d, want %d", ErrUnexpected, tag, want)
	}
	return v, nil
}

// Package agent runs one robot against the battle engine: it owns the
// robot's per-turn commands, applies each turn's results and feeds the
// resulting events to the dispatch engine.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nstehr/vimy/vimy-host/dispatch"
	"github.com/nstehr/vimy/vimy-host/event"
	"github.com/nstehr/vimy/vimy-host/model"
	"github.com/nstehr/vimy/vimy-host/turn"
)

var (
	ErrHalted  = errors.New("agent: halted by engine")
	ErrTesting = errors.New("agent: robot actions are not allowed while a condition is tested")
	ErrNoTeam  = errors.New("agent: robot is not on a team")
)

// Exchanger is the engine side of a turn: commands out, results back.
type Exchanger interface {
	SubmitCommands(ctx context.Context, cmds *turn.ExecCommands) error
	AwaitResult(ctx context.Context) (*turn.ExecResults, error)
}

// Robot is the robot's main loop. It drives the battle by calling Execute
// (directly or through the blocking helpers) and may return once it has
// nothing left to do. Listener callbacks are discovered on the same value.
type Robot interface {
	Run(ctx context.Context, c *Controller) error
}

// Controller is the robot-side peer of one robot for one round.
type Controller struct {
	ch      Exchanger
	statics *model.RobotStatics
	events  *dispatch.Manager
	log     *slog.Logger
	tracer  trace.Tracer

	out  *outputBuffer
	diag *slog.Logger

	mu           sync.Mutex
	commands     *turn.ExecCommands
	status       *model.RobotStatus
	bullets      map[int32]*model.Bullet
	nextBulletID int32
	firedEnergy  float64
	firedHeat    float64
	testing      bool
	paintEnabled bool
	halted       bool
	waiting      bool
	resume       chan struct{}
}

type Option func(*Controller)

// WithLogger sets the process logger; slog.Default otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) { c.tracer = t }
}

func New(ch Exchanger, statics *model.RobotStatics, opts ...Option) *Controller {
	if statics == nil {
		statics = &model.RobotStatics{}
	}
	c := &Controller{
		ch:       ch,
		statics:  statics,
		log:      slog.Default(),
		tracer:   otel.Tracer("github.com/nstehr/vimy/vimy-host/agent"),
		out:      &outputBuffer{},
		commands: turn.NewExecCommands(),
		status:   model.NewRobotStatus(model.StatusFields{}),
		bullets:  make(map[int32]*model.Bullet),
		resume:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.diag = newDiagnostics(c.out)
	c.events = dispatch.New(c, event.Listeners{}, c.diag)
	return c
}

// Events exposes the robot's event queue: custom conditions, priorities,
// interruptibility and pending events.
func (c *Controller) Events() *dispatch.Manager { return c.events }

// Diagnostics is the robot's console. Lines written here reach the engine
// with the next turn.
func (c *Controller) Diagnostics() *slog.Logger { return c.diag }

// Run plays one round: it waits for the engine to seed the round, binds
// robot's callbacks, runs its main loop and keeps turns going until the
// engine halts the robot.
func (c *Controller) Run(ctx context.Context, robot Robot) error {
	c.events.SetListeners(event.Bind(robot, event.CapabilitiesOf(c.statics)))

	start, err := c.ch.AwaitResult(ctx)
	if err != nil {
		return fmt.Errorf("round start: %w", err)
	}
	c.initializeRound(start)

	err = c.play(ctx, robot)
	switch {
	case errors.Is(err, ErrHalted):
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case isExchangeError(err):
		return err
	}

	c.diag.Error("robot stopped", "error", err)
	c.log.Warn("robot stopped before the round ended", "robot", c.statics.Name, "error", err)
	return c.waitForBattleEnd(ctx)
}

func (c *Controller) play(ctx context.Context, robot Robot) error {
	if err := c.events.ProcessEvents(); err != nil && !errors.Is(err, dispatch.ErrInterrupted) {
		return err
	}
	if err := c.runRobot(ctx, robot); err != nil {
		return err
	}
	for {
		if err := c.Execute(ctx); err != nil && !errors.Is(err, dispatch.ErrInterrupted) {
			return err
		}
	}
}

func (c *Controller) runRobot(ctx context.Context, robot Robot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("robot panicked: %v", r)
		}
	}()
	return robot.Run(ctx, c)
}

func (c *Controller) initializeRound(res *turn.ExecResults) {
	c.mu.Lock()
	c.install(res)
	c.halted = false
	c.mu.Unlock()

	c.events.Reset()
	if err := c.events.Add(&event.StatusEvent{Status: c.Status()}); err != nil {
		c.log.Warn("round start status dropped", "error", err)
	}
}

// install adopts the engine's view of the turn. Callers hold c.mu.
func (c *Controller) install(res *turn.ExecResults) {
	if res.Commands != nil {
		c.commands = res.Commands
	} else {
		c.commands = c.commands.Copy(false)
	}
	if res.Status != nil {
		c.status = res.Status
	}
	c.paintEnabled = res.PaintEnabled
	c.firedEnergy = 0
	c.firedHeat = 0
}

// Execute ends the robot's turn: the queued commands go to the engine, the
// results come back and every resulting event is dispatched before Execute
// returns. It returns ErrHalted once the engine has stopped the robot and
// the *dispatch.InterruptedError when the calling handler must unwind.
func (c *Controller) Execute(ctx context.Context) error {
	if err := c.events.Interrupting(); err != nil {
		return err
	}
	if c.Testing() {
		c.diag.Error("execute called from a condition test; handle the custom event instead")
		return ErrTesting
	}
	if c.Halted() {
		return ErrHalted
	}

	ctx, span := c.tracer.Start(ctx, "robot.turn", trace.WithAttributes(
		attribute.String("robot.name", c.statics.Name),
		attribute.Int64("robot.time", c.Time()),
	))
	defer span.End()

	res, err := c.exchange(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("turn.events", len(res.Events)))

	c.mu.Lock()
	c.install(res)
	c.halted = res.Halt
	c.mu.Unlock()

	c.enqueue(res)
	c.applyBulletUpdates(res.BulletUpdates)

	err = c.events.ProcessEvents()
	if res.Halt {
		return ErrHalted
	}
	if err != nil {
		return err
	}
	if res.ShouldWait {
		return c.wait(ctx)
	}
	return nil
}

// exchange flushes the robot's console into the batch and trades it for
// the engine's results.
func (c *Controller) exchange(ctx context.Context) (*turn.ExecResults, error) {
	c.mu.Lock()
	c.commands.OutputText = c.out.drain()
	c.commands.Validate(c.diag)
	cmds := c.commands.Copy(true)
	c.mu.Unlock()

	if err := c.ch.SubmitCommands(ctx, cmds); err != nil {
		return nil, &exchangeError{err: err}
	}
	res, err := c.ch.AwaitResult(ctx)
	if err != nil {
		return nil, &exchangeError{err: err}
	}
	return res, nil
}

func (c *Controller) enqueue(res *turn.ExecResults) {
	add := func(e event.Event) {
		if err := c.events.Add(e); err != nil {
			c.log.Debug("event dropped", "robot", c.statics.Name, "event", e.Kind().String(), "error", err)
		}
	}

	add(&event.StatusEvent{Status: c.Status()})
	if c.PaintEnabled() {
		add(&event.PaintEvent{})
	}
	for _, e := range res.Events {
		if e == nil {
			continue
		}
		c.attachBullet(e)
		add(e)
	}
	if c.statics.Team {
		for _, m := range res.TeamMessages {
			if m != nil {
				add(&event.MessageEvent{Sender: m.Sender, Payload: m.Payload})
			}
		}
	}
}

// attachBullet swaps in the robot's own Bullet for events that name one of
// its bullets by id, so robot code sees the object SetFire returned.
func (c *Controller) attachBullet(e event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch e := e.(type) {
	case *event.BulletHitEvent:
		e.Bullet = c.bullets[e.BulletID]
	case *event.BulletHitBulletEvent:
		e.Bullet = c.bullets[e.BulletID]
	case *event.BulletMissedEvent:
		e.Bullet = c.bullets[e.BulletID]
	}
}

func (c *Controller) applyBulletUpdates(updates []*model.BulletStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, st := range updates {
		if st == nil {
			continue
		}
		b, ok := c.bullets[st.BulletID]
		if !ok {
			continue
		}
		b.Update(st)
		if !st.Active {
			delete(c.bullets, st.BulletID)
		}
	}
}

// wait parks the robot until Resume or ctx ends.
func (c *Controller) wait(ctx context.Context) error {
	c.mu.Lock()
	c.waiting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.waiting = false
		c.mu.Unlock()
	}()

	select {
	case <-c.resume:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Resume releases a robot parked by a should-wait result. A resume sent
// while the robot is not waiting is kept for the next wait.
func (c *Controller) Resume() {
	select {
	case c.resume <- struct{}{}:
	default:
	}
}

func (c *Controller) Waiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting
}

// waitForBattleEnd keeps a robot that stopped early in the battle until the
// engine halts it, so battle-ended events still reach it.
func (c *Controller) waitForBattleEnd(ctx context.Context) error {
	c.events.Clear(false)
	c.mu.Lock()
	c.paintEnabled = false
	c.mu.Unlock()

	for {
		// Interruptions have nowhere to unwind to here.
		_ = c.events.ProcessEvents()

		res, err := c.exchange(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		c.mu.Lock()
		c.install(res)
		c.halted = res.Halt
		c.mu.Unlock()

		for _, e := range res.Events {
			if be, ok := e.(*event.BattleEndedEvent); ok {
				if err := c.events.Add(be); err != nil {
					c.log.Warn("battle ended event dropped", "robot", c.statics.Name, "error", err)
				}
			}
		}
		c.events.ResetConditions()

		if res.Halt || !res.ShouldWait {
			_ = c.events.ProcessEvents()
			return nil
		}
	}
}

// Time implements dispatch.Host.
func (c *Controller) Time() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status.Time()
}

// SetTestingCondition implements dispatch.Host.
func (c *Controller) SetTestingCondition(testing bool) {
	c.mu.Lock()
	c.testing = testing
	c.mu.Unlock()
}

func (c *Controller) Testing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.testing
}

// PaintEnabled reports whether the engine is currently painting this robot.
func (c *Controller) PaintEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paintEnabled && c.statics.Paint
}

func (c *Controller) Halted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.halted
}

// exchangeError marks failures of the connection itself, which end the
// session rather than the robot.
type exchangeError struct {
	err error
}

func (e *exchangeError) Error() string { return "turn exchange: " + e.err.Error() }
func (e *exchangeError) Unwrap() error { return e.err }

func isExchangeError(err error) bool {
	var ee *exchangeError
	return errors.As(err, &ee)
}

package rules

import (
	"context"

	"github.com/expr-lang/expr/vm"

	"github.com/nstehr/vimy/vimy-host/agent"
	"github.com/nstehr/vimy/vimy-host/event"
)

// Bot is one round of a scripted robot.
type Bot struct {
	event.Nop

	prog   *Program
	engine *Engine
	ctx    context.Context
	c      *agent.Controller
}

// Run sets the robot up, then evaluates the turn rules and ends the turn,
// until the engine halts the robot.
func (b *Bot) Run(ctx context.Context, c *agent.Controller) error {
	b.ctx, b.c = ctx, c
	b.setup()
	for {
		fired, err := b.engine.Evaluate(ctx, b.env(nil), c)
		if err != nil {
			return err
		}
		if len(fired) > 0 {
			c.Diagnostics().Debug("rules fired", "turn", c.Status().Time(), "rules", fired)
		}
		if err := c.Execute(ctx); err != nil {
			return err
		}
	}
}

func (b *Bot) setup() {
	c, s := b.c, b.prog.Script

	if have := event.CapabilitiesOf(c.Statics()); !have.Has(b.prog.requires) {
		c.Diagnostics().Warn("script needs capabilities the robot lacks",
			"script", s.Name, "needs", b.prog.requires.String(), "has", have.String())
	}

	c.SetColors(agent.Colors{
		Body:   s.Colors.Body,
		Gun:    s.Colors.Gun,
		Radar:  s.Colors.Radar,
		Bullet: s.Colors.Bullet,
		Scan:   s.Colors.Scan,
	})
	if s.AdjustGunForBody {
		c.SetAdjustGunForBody(true)
	}
	if s.AdjustRadarForGun {
		c.SetAdjustRadarForGun(true)
	}
	for class, p := range s.Priorities {
		c.Events().SetEventPriority(class, p)
	}
	for _, cp := range b.prog.conditions {
		c.AddCustomEvent(&condition{cp: cp, bot: b})
	}
}

func (b *Bot) env(e event.Event) Env {
	return newEnv(b.c, e, b.engine.Memory)
}

func (b *Bot) handle(e event.Event) error {
	steps := b.prog.handlers[e.Kind()]
	if ce, ok := e.(*event.CustomEvent); ok {
		if cond, ok := ce.Condition.(*condition); ok && len(cond.cp.steps) > 0 {
			steps = cond.cp.steps
		}
	}
	if len(steps) == 0 {
		return nil
	}
	return runSteps(b.ctx, b.c, b.env(e), steps)
}

func (b *Bot) OnStatus(e *event.StatusEvent) error                   { return b.handle(e) }
func (b *Bot) OnScannedRobot(e *event.ScannedRobotEvent) error       { return b.handle(e) }
func (b *Bot) OnHitByBullet(e *event.HitByBulletEvent) error         { return b.handle(e) }
func (b *Bot) OnHitWall(e *event.HitWallEvent) error                 { return b.handle(e) }
func (b *Bot) OnHitRobot(e *event.HitRobotEvent) error               { return b.handle(e) }
func (b *Bot) OnBulletHit(e *event.BulletHitEvent) error             { return b.handle(e) }
func (b *Bot) OnBulletHitBullet(e *event.BulletHitBulletEvent) error { return b.handle(e) }
func (b *Bot) OnBulletMissed(e *event.BulletMissedEvent) error       { return b.handle(e) }
func (b *Bot) OnRobotDeath(e *event.RobotDeathEvent) error           { return b.handle(e) }
func (b *Bot) OnDeath(e *event.DeathEvent) error                     { return b.handle(e) }
func (b *Bot) OnWin(e *event.WinEvent) error                         { return b.handle(e) }
func (b *Bot) OnRoundEnded(e *event.RoundEndedEvent) error           { return b.handle(e) }
func (b *Bot) OnBattleEnded(e *event.BattleEndedEvent) error         { return b.handle(e) }
func (b *Bot) OnCustomEvent(e *event.CustomEvent) error              { return b.handle(e) }
func (b *Bot) OnSkippedTurn(e *event.SkippedTurnEvent) error         { return b.handle(e) }
func (b *Bot) OnMessageReceived(e *event.MessageEvent) error         { return b.handle(e) }

// condition is a script condition bound to one round's bot.
type condition struct {
	cp  *conditionProgram
	bot *Bot
}

func (c *condition) Name() string  { return c.cp.name }
func (c *condition) Priority() int { return c.cp.priority }

func (c *condition) Test() bool {
	out, err := vm.Run(c.cp.program, c.bot.env(nil))
	if err != nil {
		c.bot.c.Diagnostics().Warn("condition failed", "condition", c.cp.name, "error", err)
		return false
	}
	ok, _ := out.(bool)
	return ok
}

package agent

import (
	"context"
	"errors"
	"math"

	"github.com/nstehr/vimy/vimy-host/dispatch"
	"github.com/nstehr/vimy/vimy-host/event"
	"github.com/nstehr/vimy/vimy-host/model"
	"github.com/nstehr/vimy/vimy-host/turn"
)

const (
	MinBulletPower = 0.1
	MaxBulletPower = 3.0
)

// GunHeat is the heat a bullet of the given power adds to the gun.
func GunHeat(power float64) float64 { return 1 + power/5 }

// Colors are ARGB values; a zero field keeps the default for that part.
type Colors struct {
	Body   uint32
	Gun    uint32
	Radar  uint32
	Bullet uint32
	Scan   uint32
}

// mutate runs fn on the pending commands unless a condition is being
// tested, in which case the action is refused on the robot console.
func (c *Controller) mutate(action string, fn func(cmds *turn.ExecCommands)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.testing {
		c.diag.Warn("action refused inside a condition test", "action", action)
		return false
	}
	fn(c.commands)
	return true
}

// SetMove queues a move of distance pixels, backwards when negative. A
// disabled robot (no energy) cannot move.
func (c *Controller) SetMove(distance float64) {
	if c.Energy() == 0 {
		return
	}
	c.mutate("move", func(cmds *turn.ExecCommands) {
		cmds.DistanceRemaining = distance
		cmds.Moved = true
	})
}

// SetBodyTurn queues a body turn in radians, clockwise when positive.
func (c *Controller) SetBodyTurn(radians float64) {
	if c.Energy() <= 0 {
		return
	}
	c.mutate("turn body", func(cmds *turn.ExecCommands) { cmds.BodyTurnRemaining = radians })
}

func (c *Controller) SetGunTurn(radians float64) {
	c.mutate("turn gun", func(cmds *turn.ExecCommands) { cmds.GunTurnRemaining = radians })
}

func (c *Controller) SetRadarTurn(radians float64) {
	c.mutate("turn radar", func(cmds *turn.ExecCommands) { cmds.RadarTurnRemaining = radians })
}

func (c *Controller) SetMaxVelocity(v float64) {
	c.mutate("max velocity", func(cmds *turn.ExecCommands) { cmds.SetMaxVelocity(v) })
}

func (c *Controller) SetMaxTurnRate(radians float64) {
	c.mutate("max turn rate", func(cmds *turn.ExecCommands) { cmds.SetMaxTurnRate(radians) })
}

func (c *Controller) SetAdjustGunForBody(adjust bool) {
	c.mutate("adjust gun", func(cmds *turn.ExecCommands) { cmds.AdjustGunForBody = adjust })
}

// SetAdjustRadarForGun also decouples the radar from the body unless that
// was chosen explicitly with SetAdjustRadarForBody.
func (c *Controller) SetAdjustRadarForGun(adjust bool) {
	c.mutate("adjust radar", func(cmds *turn.ExecCommands) {
		cmds.AdjustRadarForGun = adjust
		if !cmds.AdjustRadarForBodySet {
			cmds.AdjustRadarForBody = adjust
		}
	})
}

func (c *Controller) SetAdjustRadarForBody(adjust bool) {
	c.mutate("adjust radar", func(cmds *turn.ExecCommands) {
		cmds.AdjustRadarForBody = adjust
		cmds.AdjustRadarForBodySet = true
	})
}

func (c *Controller) SetColors(col Colors) {
	pick := func(v, def uint32) uint32 {
		if v == 0 {
			return def
		}
		return v
	}
	c.mutate("colors", func(cmds *turn.ExecCommands) {
		cmds.BodyColor = pick(col.Body, turn.DefaultBodyColor)
		cmds.GunColor = pick(col.Gun, turn.DefaultGunColor)
		cmds.RadarColor = pick(col.Radar, turn.DefaultRadarColor)
		cmds.BulletColor = pick(col.Bullet, turn.DefaultBulletColor)
		cmds.ScanColor = pick(col.Scan, turn.DefaultScanColor)
	})
}

func (c *Controller) SetDebugProperty(key, value string) {
	c.mutate("debug property", func(cmds *turn.ExecCommands) {
		cmds.DebugProperties = append(cmds.DebugProperties, &model.DebugProperty{Key: key, Value: value})
	})
}

// SetScan asks for a radar scan this turn even if the radar does not move.
func (c *Controller) SetScan() {
	c.mutate("scan", func(cmds *turn.ExecCommands) { cmds.Scan = true })
}

// SetGraphics queues serialized paint calls for this turn.
func (c *Controller) SetGraphics(calls []byte) {
	c.mutate("paint", func(cmds *turn.ExecCommands) {
		cmds.GraphicsCalls = append(cmds.GraphicsCalls, calls...)
		cmds.IsTryingToPaint = true
	})
}

// BroadcastMessage sends payload to every teammate.
func (c *Controller) BroadcastMessage(payload []byte) error {
	return c.SendMessage("", payload)
}

// SendMessage sends payload to one teammate, or to all of them when name
// is empty.
func (c *Controller) SendMessage(name string, payload []byte) error {
	if !c.statics.Team {
		return ErrNoTeam
	}
	ok := c.mutate("send message", func(cmds *turn.ExecCommands) {
		cmds.TeamMessages = append(cmds.TeamMessages, &model.TeamMessage{
			Sender:    c.statics.Name,
			Recipient: name,
			Payload:   payload,
		})
	})
	if !ok {
		return ErrTesting
	}
	return nil
}

// SetFire queues a bullet and returns the robot's handle on it, or nil
// when the gun is hot, the robot has no energy or power is NaN. Power is
// clamped to MinBulletPower..MaxBulletPower and to the energy left.
func (c *Controller) SetFire(power float64) *model.Bullet {
	if math.IsNaN(power) {
		c.diag.Warn("cannot fire NaN")
		return nil
	}
	top := c.events.TopEvent()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.testing {
		c.diag.Warn("action refused inside a condition test", "action", "fire")
		return nil
	}
	energy := c.status.Energy() - c.firedEnergy
	if c.status.GunHeat()+c.firedHeat > 0 || energy == 0 {
		return nil
	}
	power = math.Min(energy, math.Min(math.Max(power, MinBulletPower), MaxBulletPower))

	c.nextBulletID++
	st := c.status
	b := &model.Bullet{
		Heading: st.GunHeading(),
		X:       st.X(),
		Y:       st.Y(),
		Power:   power,
		Owner:   c.statics.Name,
		Active:  true,
		ID:      c.nextBulletID,
	}
	cmd := &model.BulletCommand{Power: power, BulletID: c.nextBulletID}

	// Simple robots firing at what they just scanned get their aim fixed up.
	if scan, ok := top.(*event.ScannedRobotEvent); ok && scan.Time() == st.Time() &&
		!c.statics.Advanced && st.GunHeading() == st.RadarHeading() {
		angle := normalAbsoluteAngle(st.BodyHeading() + scan.Bearing)
		b.Heading = angle
		cmd.FireAssistValid = true
		cmd.FireAssistAngle = angle
	}

	c.firedEnergy += power
	c.firedHeat += GunHeat(power)
	c.commands.Bullets = append(c.commands.Bullets, cmd)
	c.bullets[b.ID] = b
	return b
}

func normalAbsoluteAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// Move, Turn, TurnGun and TurnRadar block, ticking at least once, until the
// engine reports the movement done.
func (c *Controller) Move(ctx context.Context, distance float64) error {
	c.SetMove(distance)
	return c.until(ctx, c.DistanceRemaining)
}

func (c *Controller) Turn(ctx context.Context, radians float64) error {
	c.SetBodyTurn(radians)
	return c.until(ctx, c.BodyTurnRemaining)
}

func (c *Controller) TurnGun(ctx context.Context, radians float64) error {
	c.SetGunTurn(radians)
	return c.until(ctx, c.GunTurnRemaining)
}

func (c *Controller) TurnRadar(ctx context.Context, radians float64) error {
	c.SetRadarTurn(radians)
	return c.until(ctx, c.RadarTurnRemaining)
}

func (c *Controller) until(ctx context.Context, remaining func() float64) error {
	for {
		if err := c.Execute(ctx); err != nil {
			return err
		}
		if remaining() == 0 {
			return nil
		}
	}
}

// Fire queues a bullet and ends the turn.
func (c *Controller) Fire(ctx context.Context, power float64) (*model.Bullet, error) {
	b := c.SetFire(power)
	return b, c.Execute(ctx)
}

// Rescan scans again this turn. Called from the scanned-robot handler, a
// new sighting restarts that handler instead of waiting for it to finish.
func (c *Controller) Rescan(ctx context.Context) error {
	scanPriority := c.events.EventPriority(event.KindScannedRobot.String())
	restore, reset := false, false
	if c.events.TopPriority() == scanPriority {
		reset = true
		restore = c.events.Interruptible(scanPriority)
		c.events.SetInterruptible(scanPriority, true)
	}

	c.SetScan()
	err := c.Execute(ctx)

	if reset && !errors.Is(err, dispatch.ErrInterrupted) {
		c.events.SetInterruptible(scanPriority, restore)
	}
	return err
}

// SetInterruptible lets the handler currently running be restarted by a
// newer event of its own priority.
func (c *Controller) SetInterruptible(interruptible bool) {
	c.events.SetCurrentInterruptible(interruptible)
}

func (c *Controller) AddCustomEvent(cond event.Condition) { c.events.AddCondition(cond) }

func (c *Controller) RemoveCustomEvent(cond event.Condition) { c.events.RemoveCondition(cond) }

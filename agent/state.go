package agent

import (
	"cmp"
	"slices"

	"github.com/nstehr/vimy/vimy-host/model"
)

// Status is the status the engine sent with the last turn.
func (c *Controller) Status() *model.RobotStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) Statics() *model.RobotStatics { return c.statics }

func (c *Controller) Name() string { return c.statics.Name }

// Energy is the robot's energy less what bullets fired this turn will cost.
func (c *Controller) Energy() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status.Energy() - c.firedEnergy
}

// GunHeat includes the heat of bullets fired this turn.
func (c *Controller) GunHeat() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status.GunHeat() + c.firedHeat
}

func (c *Controller) X() float64            { return c.Status().X() }
func (c *Controller) Y() float64            { return c.Status().Y() }
func (c *Controller) Velocity() float64     { return c.Status().Velocity() }
func (c *Controller) BodyHeading() float64  { return c.Status().BodyHeading() }
func (c *Controller) GunHeading() float64   { return c.Status().GunHeading() }
func (c *Controller) RadarHeading() float64 { return c.Status().RadarHeading() }
func (c *Controller) Others() int32         { return c.Status().Others() }
func (c *Controller) NumSentries() int32    { return c.Status().NumSentries() }
func (c *Controller) RoundNum() int32       { return c.Status().RoundNum() }

func (c *Controller) NumRounds() int32         { return c.statics.Rules.NumRounds }
func (c *Controller) BattlefieldWidth() int32  { return c.statics.Rules.Width }
func (c *Controller) BattlefieldHeight() int32 { return c.statics.Rules.Height }
func (c *Controller) GunCoolingRate() float64  { return c.statics.Rules.GunCoolingRate }

// The remaining amounts are read from the pending commands, so they include
// anything set since the last turn.

func (c *Controller) DistanceRemaining() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commands.DistanceRemaining
}

func (c *Controller) BodyTurnRemaining() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commands.BodyTurnRemaining
}

func (c *Controller) GunTurnRemaining() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commands.GunTurnRemaining
}

func (c *Controller) RadarTurnRemaining() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commands.RadarTurnRemaining
}

// Bullets returns the robot's bullets still in flight, oldest first.
func (c *Controller) Bullets() []*model.Bullet {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*model.Bullet, 0, len(c.bullets))
	for _, b := range c.bullets {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b *model.Bullet) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

package model

import "github.com/nstehr/vimy/vimy-host/wire"

// BattleRules are the fixed parameters of the battle the robot joined.
type BattleRules struct {
	Width            int32
	Height           int32
	NumRounds        int32
	GunCoolingRate   float64
	InactivityTime   int64
	HideEnemyNames   bool
	SentryBorderSize int32
}

// RobotStatics describes the robot for the whole battle. The engine sends
// it once, before the first turn.
type RobotStatics struct {
	Version        string
	Junior         bool
	Interactive    bool
	Paint          bool
	Advanced       bool
	Team           bool
	TeamLeader     bool
	Droid          bool
	Sentry         bool
	Name           string
	ShortName      string
	VeryShortName  string
	FullClassName  string
	ShortClassName string
	Rules          BattleRules
	Teammates      []string
	TeamName       string
	RobotIndex     int32
	TeamIndex      int32
}

func sizeTeammates(s *wire.Serializer, mates []string) int {
	n := wire.SizeInt32
	for _, m := range mates {
		n += s.SizeString(m)
	}
	return n
}

var robotStaticsCodec = wire.CodecOf(
	func(s *wire.Serializer, v *RobotStatics) int {
		return s.SizeString(v.Version) + 8*wire.SizeBool +
			s.SizeString(v.Name) + s.SizeString(v.ShortName) + s.SizeString(v.VeryShortName) +
			s.SizeString(v.FullClassName) + s.SizeString(v.ShortClassName) +
			4*wire.SizeInt32 + wire.SizeFloat64 + wire.SizeInt64 + wire.SizeBool +
			sizeTeammates(s, v.Teammates) + s.SizeString(v.TeamName) + 2*wire.SizeInt32
	},
	func(w *wire.Writer, v *RobotStatics) {
		w.String(v.Version)
		w.Bool(v.Junior)
		w.Bool(v.Interactive)
		w.Bool(v.Paint)
		w.Bool(v.Advanced)
		w.Bool(v.Team)
		w.Bool(v.TeamLeader)
		w.Bool(v.Droid)
		w.Bool(v.Sentry)
		w.String(v.Name)
		w.String(v.ShortName)
		w.String(v.VeryShortName)
		w.String(v.FullClassName)
		w.String(v.ShortClassName)
		w.Int32(v.Rules.Width)
		w.Int32(v.Rules.Height)
		w.Int32(v.Rules.NumRounds)
		w.Float64(v.Rules.GunCoolingRate)
		w.Int64(v.Rules.InactivityTime)
		w.Bool(v.Rules.HideEnemyNames)
		w.Int32(v.Rules.SentryBorderSize)
		// Teammates are a run of strings closed by a null length.
		for _, m := range v.Teammates {
			w.String(m)
		}
		w.Null()
		w.String(v.TeamName)
		w.Int32(v.RobotIndex)
		w.Int32(v.TeamIndex)
	},
	func(r *wire.Reader) *RobotStatics {
		v := &RobotStatics{
			Version:        r.String(),
			Junior:         r.Bool(),
			Interactive:    r.Bool(),
			Paint:          r.Bool(),
			Advanced:       r.Bool(),
			Team:           r.Bool(),
			TeamLeader:     r.Bool(),
			Droid:          r.Bool(),
			Sentry:         r.Bool(),
			Name:           r.String(),
			ShortName:      r.String(),
			VeryShortName:  r.String(),
			FullClassName:  r.String(),
			ShortClassName: r.String(),
			Rules: BattleRules{
				Width:            r.Int32(),
				Height:           r.Int32(),
				NumRounds:        r.Int32(),
				GunCoolingRate:   r.Float64(),
				InactivityTime:   r.Int64(),
				HideEnemyNames:   r.Bool(),
				SentryBorderSize: r.Int32(),
			},
		}
		for {
			m, ok := r.NullableString()
			if !ok {
				break
			}
			v.Teammates = append(v.Teammates, m)
		}
		v.TeamName = r.String()
		v.RobotIndex = r.Int32()
		v.TeamIndex = r.Int32()
		return v
	},
)

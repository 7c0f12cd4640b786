package turn

import (
	"github.com/nstehr/vimy/vimy-host/event"
	"github.com/nstehr/vimy/vimy-host/model"
	"github.com/nstehr/vimy/vimy-host/wire"
)

// ExecResults is the engine's answer to one ExecCommands.
type ExecResults struct {
	// Halt ends the robot's run loop.
	Halt bool
	// ShouldWait parks the robot until the engine resumes it.
	ShouldWait   bool
	PaintEnabled bool

	// Commands seeds the robot's next batch. It reflects what the engine
	// accepted, which may differ from what was sent.
	Commands *ExecCommands
	Status   *model.RobotStatus

	Events        []event.Event
	TeamMessages  []*model.TeamMessage
	BulletUpdates []*model.BulletStatus
}

var execResultsCodec = wire.CodecOf(
	func(s *wire.Serializer, v *ExecResults) int {
		return 3*wire.SizeBool +
			s.SizeOf(model.TagExecCommands, v.Commands) +
			s.SizeOf(model.TagRobotStatus, v.Status) +
			event.SizeList(s, v.Events) +
			wire.SizeList(s, model.TagTeamMessage, v.TeamMessages) +
			wire.SizeList(s, model.TagBulletStatus, v.BulletUpdates)
	},
	func(w *wire.Writer, v *ExecResults) {
		w.Bool(v.Halt)
		w.Bool(v.ShouldWait)
		w.Bool(v.PaintEnabled)
		w.Record(model.TagExecCommands, v.Commands)
		w.Record(model.TagRobotStatus, v.Status)
		event.WriteList(w, v.Events)
		wire.WriteList(w, model.TagTeamMessage, v.TeamMessages)
		wire.WriteList(w, model.TagBulletStatus, v.BulletUpdates)
	},
	func(r *wire.Reader) *ExecResults {
		return &ExecResults{
			Halt:          r.Bool(),
			ShouldWait:    r.Bool(),
			PaintEnabled:  r.Bool(),
			Commands:      wire.RecordOf[*ExecCommands](r),
			Status:        wire.RecordOf[*model.RobotStatus](r),
			Events:        event.ReadList(r),
			TeamMessages:  wire.ReadList[*model.TeamMessage](r),
			BulletUpdates: wire.ReadList[*model.BulletStatus](r),
		}
	},
)

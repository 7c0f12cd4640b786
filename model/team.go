package model

import "github.com/nstehr/vimy/vimy-host/wire"

// TeamMessage carries an opaque payload between teammates. An empty
// Recipient means broadcast to the whole team.
type TeamMessage struct {
	Sender    string
	Recipient string
	Payload   []byte
}

func (m *TeamMessage) Broadcast() bool { return m.Recipient == "" }

// DebugProperty is a key/value pair shown in the engine's robot inspector.
type DebugProperty struct {
	Key   string
	Value string
}

var teamMessageCodec = wire.CodecOf(
	func(s *wire.Serializer, v *TeamMessage) int {
		return s.SizeString(v.Sender) + s.SizeString(v.Recipient) + wire.SizeBytes(v.Payload)
	},
	func(w *wire.Writer, v *TeamMessage) {
		w.String(v.Sender)
		w.String(v.Recipient)
		w.Bytes(v.Payload)
	},
	func(r *wire.Reader) *TeamMessage {
		return &TeamMessage{
			Sender:    r.String(),
			Recipient: r.String(),
			Payload:   r.Bytes(),
		}
	},
)

var debugPropertyCodec = wire.CodecOf(
	func(s *wire.Serializer, v *DebugProperty) int {
		return s.SizeString(v.Key) + s.SizeString(v.Value)
	},
	func(w *wire.Writer, v *DebugProperty) {
		w.String(v.Key)
		w.String(v.Value)
	},
	func(r *wire.Reader) *DebugProperty {
		return &DebugProperty{Key: r.String(), Value: r.String()}
	},
)

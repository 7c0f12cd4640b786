package model

import (
	"strings"
	"unicode/utf16"

	"github.com/nstehr/vimy/vimy-host/wire"
)

// BattleResults is one robot's standing at the end of a battle. Scores and
// ScoreNames run in parallel.
type BattleResults struct {
	TeamLeaderName string
	Rank           int32
	Score          float64
	Scores         []float64
	ScoreNames     []string
	Firsts         int32
	Seconds        int32
	Thirds         int32
}

// ScoreNames travel as one char array, each name followed by '\n'.
func encodeNames(names []string) []uint16 {
	if names == nil {
		return nil
	}
	out := make([]uint16, 0, len(names)*8)
	for _, n := range names {
		out = append(out, utf16.Encode([]rune(n))...)
		out = append(out, '\n')
	}
	return out
}

func decodeNames(chars []uint16) []string {
	if chars == nil {
		return nil
	}
	names := []string{}
	text := string(utf16.Decode(chars))
	for _, n := range strings.SplitAfter(text, "\n") {
		if n == "" {
			continue
		}
		names = append(names, strings.TrimSuffix(n, "\n"))
	}
	return names
}

var battleResultsCodec = wire.CodecOf(
	func(s *wire.Serializer, v *BattleResults) int {
		return s.SizeString(v.TeamLeaderName) + wire.SizeInt32 + wire.SizeFloat64 +
			wire.SizeArray(len(v.Scores), wire.SizeFloat64) +
			wire.SizeArray(len(encodeNames(v.ScoreNames)), wire.SizeChar) +
			3*wire.SizeInt32
	},
	func(w *wire.Writer, v *BattleResults) {
		w.String(v.TeamLeaderName)
		w.Int32(v.Rank)
		w.Float64(v.Score)
		w.Float64s(v.Scores)
		w.Chars(encodeNames(v.ScoreNames))
		w.Int32(v.Firsts)
		w.Int32(v.Seconds)
		w.Int32(v.Thirds)
	},
	func(r *wire.Reader) *BattleResults {
		return &BattleResults{
			TeamLeaderName: r.String(),
			Rank:           r.Int32(),
			Score:          r.Float64(),
			Scores:         r.Float64s(),
			ScoreNames:     decodeNames(r.Chars()),
			Firsts:         r.Int32(),
			Seconds:        r.Int32(),
			Thirds:         r.Int32(),
		}
	},
)

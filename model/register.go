package model

import (
	"fmt"

	"github.com/nstehr/vimy/vimy-host/wire"
)

// Register adds the record codecs of this package to reg.
func Register(reg *wire.Registry) error {
	codecs := []struct {
		tag   byte
		codec wire.Codec
	}{
		{TagBulletCommand, bulletCommandCodec},
		{TagTeamMessage, teamMessageCodec},
		{TagDebugProperty, debugPropertyCodec},
		{TagRobotStatus, robotStatusCodec},
		{TagBulletStatus, bulletStatusCodec},
		{TagBattleResults, battleResultsCodec},
		{TagBullet, bulletCodec},
		{TagRobotStatics, robotStaticsCodec},
	}
	for _, c := range codecs {
		if err := reg.Register(c.tag, c.codec); err != nil {
			return fmt.Errorf("register model codecs: %w", err)
		}
	}
	return nil
}

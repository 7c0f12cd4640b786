package turn

import (
	"fmt"
	"sync"

	"github.com/nstehr/vimy/vimy-host/event"
	"github.com/nstehr/vimy/vimy-host/model"
	"github.com/nstehr/vimy/vimy-host/wire"
)

// RegisterTypes adds every codec of the protocol to reg: records, engine
// events and the two turn batches.
func RegisterTypes(reg *wire.Registry) error {
	if err := model.Register(reg); err != nil {
		return err
	}
	if err := event.Register(reg); err != nil {
		return err
	}
	if err := reg.Register(model.TagExecCommands, execCommandsCodec); err != nil {
		return fmt.Errorf("register turn codecs: %w", err)
	}
	if err := reg.Register(model.TagExecResults, execResultsCodec); err != nil {
		return fmt.Errorf("register turn codecs: %w", err)
	}
	return nil
}

var (
	defaultOnce sync.Once
	defaultErr  error
)

// RegisterDefault fills wire.Default once per process.
func RegisterDefault() error {
	defaultOnce.Do(func() {
		defaultErr = RegisterTypes(wire.Default)
	})
	return defaultErr
}

// NewSerializer returns a serializer backed by a private registry holding
// every protocol type.
func NewSerializer(version int32, opts ...wire.Option) (*wire.Serializer, error) {
	reg := wire.NewRegistry()
	if err := RegisterTypes(reg); err != nil {
		return nil, err
	}
	return wire.New(version, append([]wire.Option{wire.WithRegistry(reg)}, opts...)...), nil
}

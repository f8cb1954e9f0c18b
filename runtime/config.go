package runtime

import (
	"go.uber.org/zap"

	"github.com/loggerhead/zaw"
)

// Config is the bootstrap configuration surface.
type Config struct {
	// InputSize and OutputSize are the channel capacities requested from
	// the module, in bytes. Must be positive; the module rounds storage up
	// to a multiple of 8.
	InputSize  int32
	OutputSize int32

	// MaxLogSize and MaxErrorSize bound the side-channel reads. They must
	// match the module's buffer capacities; zero selects the protocol
	// defaults.
	MaxLogSize   uint32
	MaxErrorSize uint32

	// InitialPages, when non-zero, grows memory to at least this many
	// pages during bootstrap even if the four regions need less.
	InitialPages uint32

	// Memory, when non-nil, is used instead of the boundary's own memory.
	// It must address the same linear memory the module operates on — a
	// wrapper adding instrumentation or policy, not a separate region.
	Memory zaw.Memory

	// LogSink receives decoded log messages from the module. When nil,
	// messages go to Logger at Info level.
	LogSink func(msg string)

	// Logger is used for bootstrap and view-rebuild diagnostics.
	// Defaults to a nop logger.
	Logger *zap.Logger
}

// DefaultConfig returns a config with 4 KiB channels and protocol-default
// side-channel bounds.
func DefaultConfig() Config {
	return Config{
		InputSize:    4096,
		OutputSize:   4096,
		MaxLogSize:   zaw.DefaultLogSize,
		MaxErrorSize: zaw.DefaultErrorSize,
	}
}

func (c *Config) fillDefaults() {
	if c.MaxLogSize == 0 {
		c.MaxLogSize = zaw.DefaultLogSize
	}
	if c.MaxErrorSize == 0 {
		c.MaxErrorSize = zaw.DefaultErrorSize
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

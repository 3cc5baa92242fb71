package logging

import (
	"github.com/rs/zerolog"
	"github.com/sasha-s/go-deadlock"

	"github.com/wricardo/citygrid/game/controller"
)

// Zerolog writes controller log events to a zerolog.Logger
type Zerolog struct {
	mutex  deadlock.Mutex
	logger zerolog.Logger
}

// New creates an adapter tagged with the core service name
func New(logger zerolog.Logger) *Zerolog {
	return &Zerolog{
		logger: logger.With().Str("service", "core").Logger(),
	}
}

// Log implements controller.Logger
func (z *Zerolog) Log(level controller.Level, message string, caller string) {
	z.mutex.Lock()
	defer z.mutex.Unlock()

	z.logger.WithLevel(zerologLevel(level)).Str("caller", caller).Msg(message)
}

func zerologLevel(level controller.Level) zerolog.Level {
	switch level {
	case controller.Debug:
		return zerolog.DebugLevel
	case controller.Info:
		return zerolog.InfoLevel
	case controller.Error:
		return zerolog.ErrorLevel
	}
	return zerolog.NoLevel
}

var _ controller.Logger = (*Zerolog)(nil)

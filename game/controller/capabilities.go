package controller

import (
	"math/rand/v2"
	"time"

	"github.com/wricardo/citygrid/game/engine"
)

// Level is the severity of a log event
type Level int

const (
	Debug Level = iota
	Info
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Error:
		return "error"
	}
	return "unknown"
}

// Logger receives the controller's log events. Implementations must not
// block for long.
type Logger interface {
	Log(level Level, message string, caller string)
}

// Validator decides whether an input is legal in a game state
type Validator interface {
	IsInputValid(game *engine.GameState, input engine.PlayerInput) error
}

// Clock is the source of check-in timestamps
type Clock interface {
	Now() time.Time
}

// Random draws identifiers
type Random interface {
	Int32() int32
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type mathRandom struct{}

func (mathRandom) Int32() int32 { return rand.Int32() }

type nopLogger struct{}

func (nopLogger) Log(Level, string, string) {}

// Option configures a Controller
type Option func(*Controller)

// WithClock replaces the wall clock
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithRandom replaces the identifier source
func WithRandom(random Random) Option {
	return func(c *Controller) { c.random = random }
}

// WithStartingMoves sets the per-turn move allotment for new games
func WithStartingMoves(moves int) Option {
	return func(c *Controller) {
		if moves > 0 {
			c.startingMoves = moves
		}
	}
}

// WithPlayerTimeout sets how long a player id survives without a check-in
func WithPlayerTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		if timeout > 0 {
			c.playerTimeout = timeout
		}
	}
}

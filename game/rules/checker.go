package rules

import (
	"fmt"

	"github.com/wricardo/citygrid/game/engine"
)

// CheckFunc returns nil when the input is valid, otherwise a violation
type CheckFunc func(game *engine.GameState, input engine.PlayerInput) *Violation

// Rule binds a check to the input types it governs
type Rule struct {
	Inputs []engine.InputType
	Check  CheckFunc
}

func (r Rule) governs(t engine.InputType) bool {
	for _, input := range r.Inputs {
		if input == t || input == engine.All {
			return true
		}
	}
	return false
}

// Violation is a rule rejection
type Violation struct {
	Reason string
	// Rule is the registration index of the rule that rejected the input
	Rule int
}

func (v *Violation) Error() string {
	return v.Reason
}

func invalid(format string, args ...any) *Violation {
	return &Violation{Reason: fmt.Sprintf(format, args...)}
}

// Checker evaluates rules in order and stops at the first violation
type Checker struct {
	rules []Rule
}

// NewChecker creates a checker for the given rules
func NewChecker(rules ...Rule) *Checker {
	return &Checker{rules: rules}
}

// Default creates a checker with the game's rule set
func Default() *Checker {
	return NewChecker(DefaultRules()...)
}

// IsInputValid returns nil when every governing rule accepts the input.
// The returned error is always a *Violation.
func (c *Checker) IsInputValid(game *engine.GameState, input engine.PlayerInput) error {
	for i, rule := range c.rules {
		if !rule.governs(input.InputType) {
			continue
		}
		if v := rule.Check(game, input); v != nil {
			v.Rule = i
			return v
		}
	}
	return nil
}

// Len returns the number of registered rules
func (c *Checker) Len() int {
	return len(c.rules)
}

// DefaultRules returns the game's rules in precedence order
func DefaultRules() []Rule {
	return []Rule{
		{
			Inputs: []engine.InputType{engine.Movement, engine.ModifyDistrict, engine.NextTurn, engine.UndoAction},
			Check:  hasGameStarted,
		},
		{
			Inputs: []engine.InputType{engine.All},
			Check:  isPlayersTurn,
		},
		{
			Inputs: []engine.InputType{engine.StartGame, engine.ModifyEdgeRestrictions, engine.ModifyDistrict},
			Check:  isOrchestrator,
		},
		{
			Inputs: []engine.InputType{engine.Movement},
			Check:  hasPosition,
		},
		{
			Inputs: []engine.InputType{engine.SetPlayerBusBool},
			Check:  canToggleBus,
		},
		{
			Inputs: []engine.InputType{engine.Movement},
			Check:  nextNodeIsNeighbour,
		},
		{
			Inputs: []engine.InputType{engine.Movement},
			Check:  hasEnoughMoves,
		},
		{
			Inputs: []engine.InputType{engine.Movement},
			Check:  canMoveToNode,
		},
		{
			Inputs: []engine.InputType{engine.ModifyEdgeRestrictions},
			Check:  canModifyEdgeRestriction,
		},
	}
}

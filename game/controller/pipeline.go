package controller

import (
	"errors"
	"fmt"

	"github.com/wricardo/citygrid/game/engine"
)

// HandlePlayerInput validates the input against the projected state of its
// game, dispatches it and returns the new projection
func (c *Controller) HandlePlayerInput(input engine.PlayerInput) (*engine.GameState, error) {
	c.purge()

	if c.validator == nil {
		return nil, ErrNoValidator
	}
	if _, ok := c.playerIDs[input.PlayerID]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlayer, input.PlayerID)
	}
	game, ok := c.games[input.GameID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrGameNotFound, input.GameID)
	}

	projected, err := c.snapshot(game)
	if err != nil {
		c.logger.Log(Error, fmt.Sprintf("Game %d: %v", game.ID, err), "controller.HandlePlayerInput")
		return nil, err
	}
	if err := c.validator.IsInputValid(projected, input); err != nil {
		c.logger.Log(Info, fmt.Sprintf("Rejected %s from player %d in game %d: %v", input.InputType, input.PlayerID, game.ID, err), "controller.HandlePlayerInput")
		return nil, fmt.Errorf("%w: %w", ErrInputRejected, err)
	}

	if err := c.dispatch(game, input); err != nil {
		level := Error
		if errors.Is(err, ErrMissingPayload) || errors.Is(err, ErrNothingToUndo) || errors.Is(err, engine.ErrModifierCap) {
			level = Info
		}
		c.logger.Log(level, fmt.Sprintf("Could not apply %s from player %d in game %d: %v", input.InputType, input.PlayerID, game.ID, err), "controller.HandlePlayerInput")
		return nil, err
	}

	// dispatch may have swapped the stored state
	current := c.games[input.GameID]
	if len(current.Players) == 0 {
		delete(c.games, current.ID)
		c.logger.Log(Debug, fmt.Sprintf("Removed empty game %d", current.ID), "controller.HandlePlayerInput")
	}
	return c.snapshot(current)
}

func (c *Controller) dispatch(game *engine.GameState, input engine.PlayerInput) error {
	switch input.InputType {
	case engine.Movement:
		if input.RelatedNodeID == nil {
			return fmt.Errorf("%w: movement needs related_node_id", ErrMissingPayload)
		}
		return c.stage(game, input)

	case engine.ModifyDistrict:
		if input.DistrictModifier == nil {
			return fmt.Errorf("%w: modify_district needs district_modifier", ErrMissingPayload)
		}
		return c.stage(game, input)

	case engine.NextTurn:
		return c.nextTurn(game)

	case engine.UndoAction:
		return undo(game)

	case engine.ChangeRole:
		if input.RelatedRole == nil {
			return fmt.Errorf("%w: change_role needs related_role", ErrMissingPayload)
		}
		return game.AssignPlayerRole(input.PlayerID, *input.RelatedRole)

	case engine.SetPlayerBusBool:
		if input.RelatedBool == nil {
			return fmt.Errorf("%w: set_player_bus_bool needs related_bool", ErrMissingPayload)
		}
		isBus := *input.RelatedBool
		return c.applyNow(game, func(candidate *engine.GameState) error {
			return candidate.SetPlayerBus(input.PlayerID, isBus)
		})

	case engine.ModifyEdgeRestrictions:
		if input.EdgeModifier == nil {
			return fmt.Errorf("%w: modify_edge_restrictions needs edge_modifier", ErrMissingPayload)
		}
		edge := *input.EdgeModifier
		return c.applyNow(game, func(candidate *engine.GameState) error {
			return candidate.ApplyEdgeRestriction(edge)
		})

	case engine.StartGame:
		return c.startGame(game)

	case engine.LeaveGame:
		return c.removePlayer(game, input.PlayerID)
	}

	return fmt.Errorf("%w: %q", ErrUnknownInput, input.InputType)
}

// stage appends the input to the pending log once the whole log, including
// the input, replays cleanly on a clone
func (c *Controller) stage(game *engine.GameState, input engine.PlayerInput) error {
	candidate := game.Clone()
	candidate.Actions = append(candidate.Actions, input)
	if err := replay(candidate); err != nil {
		return err
	}

	game.Actions = append(game.Actions, input)
	c.logger.Log(Debug, fmt.Sprintf("Staged %s from player %d in game %d (%d pending)", input.InputType, input.PlayerID, game.ID, len(game.Actions)), "controller.stage")
	return nil
}

// nextTurn commits the pending log by swapping in a replayed clone
func (c *Controller) nextTurn(game *engine.GameState) error {
	candidate := game.Clone()
	if err := replay(candidate); err != nil {
		return fmt.Errorf("%w: undo the failing action first: %w", ErrReplayFailed, err)
	}
	committed := len(candidate.Actions)
	candidate.Actions = []engine.PlayerInput{}
	candidate.NextPlayerTurn()

	c.games[game.ID] = candidate
	c.logger.Log(Debug, fmt.Sprintf("Game %d committed %d actions, turn goes to %s", game.ID, committed, candidate.CurrentPlayersTurn), "controller.nextTurn")
	return nil
}

func undo(game *engine.GameState) error {
	if len(game.Actions) == 0 {
		return ErrNothingToUndo
	}
	game.Actions = game.Actions[:len(game.Actions)-1]
	return nil
}

// applyNow mutates a clone and swaps it in when the pending log still
// replays on top of the change
func (c *Controller) applyNow(game *engine.GameState, mutate func(*engine.GameState) error) error {
	candidate := game.Clone()
	if err := mutate(candidate); err != nil {
		return err
	}
	if err := replay(candidate.Clone()); err != nil {
		return fmt.Errorf("%w: %w", ErrReplayFailed, err)
	}
	c.games[game.ID] = candidate
	return nil
}

// snapshot returns a clone of the game with the pending log applied
func (c *Controller) snapshot(game *engine.GameState) (*engine.GameState, error) {
	projected := game.Clone()
	if err := replay(projected); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReplayFailed, err)
	}
	return projected, nil
}

// replay applies the state's pending log to the state itself. The log is
// kept so projections still show what is pending.
func replay(game *engine.GameState) error {
	for i, action := range game.Actions {
		if err := apply(game, action); err != nil {
			return fmt.Errorf("action %d (%s): %w", i, action.InputType, err)
		}
	}
	for _, p := range game.Players {
		if p.RemainingMoves < 0 {
			return fmt.Errorf("%w: player %d", ErrNegativeMoves, p.UniqueID)
		}
	}
	return nil
}

func apply(game *engine.GameState, action engine.PlayerInput) error {
	switch action.InputType {
	case engine.Movement:
		if action.RelatedNodeID == nil {
			return ErrMissingPayload
		}
		return game.MovePlayerWithUniqueID(action.PlayerID, *action.RelatedNodeID)
	case engine.ModifyDistrict:
		if action.DistrictModifier == nil {
			return ErrMissingPayload
		}
		return game.ApplyDistrictModifier(*action.DistrictModifier)
	}
	return fmt.Errorf("%w: %s cannot be staged", ErrUnknownInput, action.InputType)
}

package rules

import (
	"github.com/wricardo/citygrid/game/engine"
	"github.com/wricardo/citygrid/game/graph"
)

func playerOf(game *engine.GameState, input engine.PlayerInput) (*engine.Player, *Violation) {
	player, err := game.PlayerWithUniqueID(input.PlayerID)
	if err != nil {
		return nil, &Violation{Reason: err.Error()}
	}
	return player, nil
}

func positionOf(player *engine.Player) (graph.NodeID, *Violation) {
	if player.PositionNodeID == nil {
		return 0, invalid("The player does not have a position and can therefore not check if it's a valid action!")
	}
	return *player.PositionNodeID, nil
}

func hasGameStarted(game *engine.GameState, _ engine.PlayerInput) *Violation {
	if game.IsLobby {
		return invalid("The game has not started yet!")
	}
	return nil
}

func isPlayersTurn(game *engine.GameState, input engine.PlayerInput) *Violation {
	if game.IsLobby || input.InputType == engine.LeaveGame {
		return nil
	}

	player, v := playerOf(game, input)
	if v != nil {
		return v
	}
	if game.CurrentPlayersTurn != player.InGameID {
		return invalid("It's not the current players turn")
	}
	return nil
}

func isOrchestrator(game *engine.GameState, input engine.PlayerInput) *Violation {
	player, v := playerOf(game, input)
	if v != nil {
		return v
	}
	if player.InGameID != engine.Orchestrator {
		return invalid("The player is not the orchestrator of the game!")
	}
	return nil
}

func hasPosition(game *engine.GameState, input engine.PlayerInput) *Violation {
	player, v := playerOf(game, input)
	if v != nil {
		return v
	}
	if player.PositionNodeID == nil {
		return invalid("The player does not have a position!")
	}
	return nil
}

func canToggleBus(game *engine.GameState, input engine.PlayerInput) *Violation {
	player, v := playerOf(game, input)
	if v != nil {
		return v
	}
	if input.RelatedBool == nil {
		return invalid("Could not check if you can toggle bus because the related bool was not set!")
	}
	pos, v := positionOf(player)
	if v != nil {
		return v
	}
	node, err := game.Map.NodeByID(pos)
	if err != nil {
		return invalid("%v and can therefore not check whether the player can toggle bus!", err)
	}
	if !node.IsParkingSpot {
		return invalid("You cannot toggle bus if you are not on a parking spot!")
	}
	return nil
}

func nextNodeIsNeighbour(game *engine.GameState, input engine.PlayerInput) *Violation {
	player, v := playerOf(game, input)
	if v != nil {
		return v
	}
	pos, v := positionOf(player)
	if v != nil {
		return v
	}
	if input.RelatedNodeID == nil {
		return invalid("There was no node to check if it's a neighbour!")
	}
	to := *input.RelatedNodeID

	neighbours, err := game.Map.AreNeighbours(pos, to)
	if err != nil {
		return invalid("%v", err)
	}
	if !neighbours {
		return invalid("The node %d is not a neighbour of the player's position!", to)
	}
	return nil
}

// hasEnoughMoves simulates the move on a clone and checks the resulting
// remaining moves, so the cost model of the movement primitive decides.
func hasEnoughMoves(game *engine.GameState, input engine.PlayerInput) *Violation {
	player, v := playerOf(game, input)
	if v != nil {
		return v
	}
	if player.RemainingMoves <= 0 {
		return invalid("The player has no remaining moves!")
	}
	if input.RelatedNodeID == nil {
		return invalid("There was no node to get cost to!")
	}

	simulated := game.Clone()
	if err := simulated.MovePlayerWithUniqueID(input.PlayerID, *input.RelatedNodeID); err != nil {
		return invalid("%v", err)
	}

	moved, v := playerOf(simulated, input)
	if v != nil {
		return v
	}
	if moved.RemainingMoves < 0 {
		return invalid("The player does not have enough remaining moves! The player would have %d remaining moves!", moved.RemainingMoves)
	}
	return nil
}

func canModifyEdgeRestriction(game *engine.GameState, input engine.PlayerInput) *Violation {
	mod := input.EdgeModifier
	if mod == nil {
		return invalid("There was no modifier on the edge modifier player input, and can therefore not check the input further!")
	}
	if !mod.EdgeRestriction.IsKnown() || (!mod.Delete && mod.EdgeRestriction == graph.NoRestriction) {
		return invalid("The edge restriction %q is not a restriction that can be placed!", mod.EdgeRestriction)
	}

	neighbours, ok := game.Map.NeighboursOf(mod.NodeOne)
	if !ok {
		return invalid("The node %d does not have neighbours and can therefore not have restrictions!", mod.NodeOne)
	}
	if _, ok := game.Map.NeighboursOf(mod.NodeTwo); !ok {
		return invalid("The node %d does not have neighbours and can therefore not have restrictions!", mod.NodeTwo)
	}

	var relationship *graph.NeighbourRelationship
	for i := range neighbours {
		if neighbours[i].To == mod.NodeTwo {
			relationship = &neighbours[i]
			break
		}
	}
	if relationship == nil {
		return invalid("The node %d does not have a neighbour with id %d!", mod.NodeOne, mod.NodeTwo)
	}

	if mod.Delete {
		if !relationship.IsModifiable {
			return invalid("The edge restriction %s on the edge between node %d and node %d is not modifiable and can therefore not be deleted!", mod.EdgeRestriction, mod.NodeOne, mod.NodeTwo)
		}
		if relationship.Restriction != mod.EdgeRestriction {
			return invalid("The edge between node %d and node %d does not have the restriction %q to delete!", mod.NodeOne, mod.NodeTwo, mod.EdgeRestriction)
		}
		return nil
	}
	if !relationship.IsModifiable {
		return invalid("The edge between node %d and node %d is not modifiable!", mod.NodeOne, mod.NodeTwo)
	}
	return nil
}

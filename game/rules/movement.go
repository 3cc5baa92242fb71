package rules

import (
	"github.com/wricardo/citygrid/game/engine"
	"github.com/wricardo/citygrid/game/graph"
)

// canMoveToNode is the movement legality decision tree. Branches are
// evaluated in order and the first one that applies decides.
func canMoveToNode(game *engine.GameState, input engine.PlayerInput) *Violation {
	player, v := playerOf(game, input)
	if v != nil {
		return v
	}
	pos, v := positionOf(player)
	if v != nil {
		return v
	}
	if input.RelatedNodeID == nil {
		return invalid("There is no related node to the movement input. There needs to be a node if a player should move!")
	}
	to := *input.RelatedNodeID

	if _, ok := game.Map.NeighboursOf(pos); !ok {
		return invalid("The node %d does not have neighbours and can therefore not be moved from!", pos)
	}
	rel, hasRel := game.Map.Relationship(pos, to)

	if player.IsBus {
		if hasRel && rel.HasRestriction(graph.ParkAndRide) {
			return nil
		}
		return invalid("The player cannot move here because the node (with id %d) is not a neighbouring node connected with a park & ride edge!", to)
	}

	current, err := game.Map.NodeByID(pos)
	if err != nil {
		return invalid("%v And can therefore not check whether the player can move here!", err)
	}
	target, err := game.Map.NodeByID(to)
	if err != nil {
		return invalid("%v And can therefore not check whether the player can move here!", err)
	}

	if current.IsConnectedToRail && target.IsConnectedToRail {
		if hasRel && rel.IsConnectedThroughRail {
			return nil
		}
		return invalid("The player cannot move here because the node (with id %d) is not a neighbouring node connected through the railway!", to)
	}

	if hasRel && rel.IsConnectedThroughRail {
		return invalid("The player cannot move here because the node (with id %d) is not a neighbouring node connected through the railway!", to)
	}

	if !hasRel {
		return invalid("The node %d is not a neighbour of the node %d and can therefore not be moved to!", to, pos)
	}

	if back, ok := game.Map.Relationship(to, pos); ok && back.HasRestriction(graph.OneWay) {
		return invalid("The player cannot move to node with id %d because it's a one way street in the opposite direction!", to)
	}

	if rel.HasRestriction(graph.ParkAndRide) {
		return invalid("The player cannot move here because it's a park & ride edge!")
	}

	if rel.Restriction != graph.NoRestriction {
		// forward direction of a one way street
		if rel.HasRestriction(graph.OneWay) {
			return nil
		}
		if player.ObjectiveCard == nil {
			return invalid("The player %s does not have an objective card and we can therefore not check if the player has access to the given zone!", player.Name)
		}
		granted := player.ObjectiveCard.Allows(rel.Restriction) ||
			(rel.Restriction == graph.Destination && engine.PlayerHasObjectiveInDistrict(game.Map, player, rel.Neighbourhood))
		if !granted {
			return invalid("The player %s does not have access to the edge %s and can therefore not move to the node %d!", player.Name, rel.Restriction, to)
		}
		return nil
	}

	return canEnterDistrict(game, player, rel)
}

// canEnterDistrict checks the access modifiers of the edge's district. A
// district without access modifiers can always be entered.
func canEnterDistrict(game *engine.GameState, player *engine.Player, rel graph.NeighbourRelationship) *Violation {
	restricted := false
	for _, mod := range game.DistrictModifiers {
		if mod.District != rel.Neighbourhood || mod.Modifier != engine.Access {
			continue
		}
		if mod.VehicleType == graph.NoRestriction {
			return invalid("There was no vehicle for access modifier on district %s!", mod.District)
		}
		restricted = true
		if player.ObjectiveCard.Allows(mod.VehicleType) ||
			(mod.VehicleType == graph.Destination && engine.PlayerHasObjectiveInDistrict(game.Map, player, mod.District)) {
			return nil
		}
	}

	if !restricted {
		return nil
	}
	return invalid("Invalid move: Player does not have required vehicle type to access district %s!", rel.Neighbourhood)
}

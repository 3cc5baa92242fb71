package engine

import (
	"fmt"

	"github.com/wricardo/citygrid/game/graph"
)

// BaseMoveCost is what every edge costs before district tolls
const BaseMoveCost = 1

// MovementCost returns the moves it costs the player to traverse rel: the
// base cost plus one for every toll on the edge's district whose vehicle
// type the player's objective card does not grant.
func (gs *GameState) MovementCost(player *Player, rel graph.NeighbourRelationship) int {
	cost := BaseMoveCost
	for _, mod := range gs.DistrictModifiers {
		if mod.Modifier != Toll || mod.District != rel.Neighbourhood {
			continue
		}
		if mod.VehicleType != graph.NoRestriction && player.ObjectiveCard.Allows(mod.VehicleType) {
			continue
		}
		cost++
	}
	return cost
}

// MovePlayerWithUniqueID moves the player along the relationship from its
// position to the node and charges the movement cost. Remaining moves may go
// negative here; callers that need the invariant check the result.
func (gs *GameState) MovePlayerWithUniqueID(id PlayerID, to graph.NodeID) error {
	player, err := gs.PlayerWithUniqueID(id)
	if err != nil {
		return err
	}
	if player.PositionNodeID == nil {
		return fmt.Errorf("%w: player %d cannot move", ErrNoPosition, id)
	}
	from := *player.PositionNodeID

	rel, ok := gs.Map.Relationship(from, to)
	if !ok {
		return fmt.Errorf("%w: node %d is not a neighbour of node %d", graph.ErrRelationshipNotFound, to, from)
	}

	player.RemainingMoves -= gs.MovementCost(player, rel)
	player.PositionNodeID = &to
	advanceObjective(player.ObjectiveCard, to)
	return nil
}

func advanceObjective(card *ObjectiveCard, at graph.NodeID) {
	if card == nil || card.Delivered {
		return
	}
	if !card.PickedPackageUp && at == card.PickUpNodeID {
		card.PickedPackageUp = true
		return
	}
	if card.PickedPackageUp && at == card.DropOffNodeID {
		card.Delivered = true
	}
}

// PlayerHasObjectiveInDistrict reports whether the player's current
// objective target lies in the district
func PlayerHasObjectiveInDistrict(m *graph.Map, player *Player, district graph.DistrictID) bool {
	if player.ObjectiveCard == nil || player.ObjectiveCard.Delivered {
		return false
	}
	return m.NodeInDistrict(player.ObjectiveCard.Target(), district)
}

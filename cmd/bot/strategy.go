package main

import (
	"github.com/wricardo/citygrid/game/engine"
	"github.com/wricardo/citygrid/game/graph"
	"github.com/wricardo/citygrid/game/rules"
)

// unlimitedMoves keeps the move budget out of route planning
const unlimitedMoves = 1 << 20

// Strategy plans routes with the same rules the server enforces
type Strategy struct {
	checker *rules.Checker
	// blocked holds edges the server rejected this turn
	blocked map[[2]graph.NodeID]bool
}

func NewStrategy() *Strategy {
	return &Strategy{
		checker: rules.Default(),
		blocked: make(map[[2]graph.NodeID]bool),
	}
}

// Block excludes from -> to until Reset
func (s *Strategy) Block(from, to graph.NodeID) {
	s.blocked[[2]graph.NodeID{from, to}] = true
}

// Reset forgets blocked edges
func (s *Strategy) Reset() {
	s.blocked = make(map[[2]graph.NodeID]bool)
}

// Target returns the node the player is heading for
func Target(player *engine.Player) (graph.NodeID, bool) {
	card := player.ObjectiveCard
	if card == nil || card.Delivered {
		return 0, false
	}
	return card.Target(), true
}

// Route returns the nodes from the player's position to its objective
// target, position excluded. It is empty when the player has nothing to do
// or the target cannot be reached.
func (s *Strategy) Route(state *engine.GameState, id engine.PlayerID) []graph.NodeID {
	player, err := state.PlayerWithUniqueID(id)
	if err != nil || player.PositionNodeID == nil {
		return nil
	}
	target, ok := Target(player)
	if !ok {
		return nil
	}
	start := *player.PositionNodeID
	if start == target {
		return nil
	}

	prev := map[graph.NodeID]graph.NodeID{}
	visited := map[graph.NodeID]bool{start: true}
	queue := []graph.NodeID{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		rels, _ := state.Map.NeighboursOf(current)
		for _, rel := range rels {
			if visited[rel.To] || !s.canMove(state, player, current, rel.To) {
				continue
			}
			visited[rel.To] = true
			prev[rel.To] = current
			if rel.To == target {
				return walkBack(prev, start, target)
			}
			queue = append(queue, rel.To)
		}
	}
	return nil
}

// canMove asks the rule engine whether the player could step from -> to
func (s *Strategy) canMove(state *engine.GameState, player *engine.Player, from, to graph.NodeID) bool {
	if s.blocked[[2]graph.NodeID{from, to}] {
		return false
	}

	sim := state.Clone()
	p, err := sim.PlayerWithUniqueID(player.UniqueID)
	if err != nil {
		return false
	}
	p.PositionNodeID = &from
	p.RemainingMoves = unlimitedMoves
	sim.CurrentPlayersTurn = p.InGameID

	input := engine.PlayerInput{InputType: engine.Movement, PlayerID: p.UniqueID, GameID: sim.ID, RelatedNodeID: &to}
	return s.checker.IsInputValid(sim, input) == nil
}

func walkBack(prev map[graph.NodeID]graph.NodeID, start, target graph.NodeID) []graph.NodeID {
	var route []graph.NodeID
	for node := target; node != start; node = prev[node] {
		route = append([]graph.NodeID{node}, route...)
	}
	return route
}

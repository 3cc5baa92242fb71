package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/citygrid/game/graph"
)

func createTestState(t *testing.T, players ...PlayerID) *GameState {
	t.Helper()
	state, err := NewGameState(1, "test game", DefaultBoard(), 5)
	require.NoError(t, err)
	for _, id := range players {
		require.NoError(t, state.AssignPlayerToGame(Player{UniqueID: id}))
	}
	return state
}

func TestNewGameState(t *testing.T) {
	state := createTestState(t)

	assert.True(t, state.IsLobby)
	assert.Empty(t, state.Players)
	assert.Equal(t, "default", state.BoardName)
	assert.Equal(t, 5, state.StartingMoves)
	assert.Len(t, state.ObjectiveDeck, 4)

	state, err := NewGameState(2, "defaults", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultStartingMoves, state.StartingMoves)
}

func TestAssignPlayerToGame(t *testing.T) {
	state := createTestState(t, 10, 11, 12, 13, 14)

	roles := []InGameID{Orchestrator, PlayerOne, PlayerTwo, PlayerThree, PlayerFour}
	for i, role := range roles {
		assert.Equal(t, role, state.Players[i].InGameID)
	}

	err := state.AssignPlayerToGame(Player{UniqueID: 15})
	assert.ErrorIs(t, err, ErrGameFull)

	err = state.AssignPlayerToGame(Player{UniqueID: 10})
	assert.Error(t, err)
}

func TestAssignPlayerToGame_StripsGameFields(t *testing.T) {
	state := createTestState(t)
	pos := graph.NodeID(3)
	require.NoError(t, state.AssignPlayerToGame(Player{UniqueID: 1, PositionNodeID: &pos, RemainingMoves: 99, IsBus: true}))

	p := state.Players[0]
	assert.Nil(t, p.PositionNodeID)
	assert.Zero(t, p.RemainingMoves)
	assert.False(t, p.IsBus)
}

func TestAssignPlayerRole(t *testing.T) {
	state := createTestState(t, 1, 2)

	assert.ErrorIs(t, state.AssignPlayerRole(2, Orchestrator), ErrRoleTaken)
	require.NoError(t, state.AssignPlayerRole(1, Undecided))
	require.NoError(t, state.AssignPlayerRole(2, Orchestrator))
	require.NoError(t, state.AssignPlayerRole(1, PlayerThree))
	assert.Equal(t, 1, state.CountRole(Orchestrator))

	assert.ErrorIs(t, state.AssignPlayerRole(99, PlayerOne), ErrPlayerNotFound)
	assert.Error(t, state.AssignPlayerRole(1, InGameID("mayor")))

	state.Begin()
	assert.ErrorIs(t, state.AssignPlayerRole(1, PlayerOne), ErrGameAlreadyStarted)
}

func TestBegin(t *testing.T) {
	state := createTestState(t, 1, 2, 3)
	state.Begin()

	assert.False(t, state.IsLobby)
	assert.Equal(t, Orchestrator, state.CurrentPlayersTurn)

	orchestrator := state.Players[0]
	assert.Nil(t, orchestrator.PositionNodeID)
	assert.Nil(t, orchestrator.ObjectiveCard)
	assert.Equal(t, 5, orchestrator.RemainingMoves)

	for _, p := range state.Players[1:] {
		require.NotNil(t, p.PositionNodeID)
		assert.Equal(t, state.StartNodeID, *p.PositionNodeID)
		assert.NotNil(t, p.ObjectiveCard)
		assert.Equal(t, 5, p.RemainingMoves)
	}
	assert.Equal(t, graph.NodeID(5), state.Players[1].ObjectiveCard.PickUpNodeID)
	assert.Equal(t, graph.NodeID(6), state.Players[2].ObjectiveCard.PickUpNodeID)
}

func TestNextPlayerTurn(t *testing.T) {
	state := createTestState(t, 1, 2, 3)
	require.NoError(t, state.AssignPlayerRole(3, PlayerFour))
	state.Begin()

	state.Players[1].RemainingMoves = 0
	state.NextPlayerTurn()
	assert.Equal(t, PlayerOne, state.CurrentPlayersTurn)
	assert.Equal(t, 5, state.Players[1].RemainingMoves)

	state.NextPlayerTurn()
	assert.Equal(t, PlayerFour, state.CurrentPlayersTurn, "unheld roles are skipped")

	state.NextPlayerTurn()
	assert.Equal(t, Orchestrator, state.CurrentPlayersTurn, "rotation wraps around")
}

func TestRemovePlayerWithUniqueID(t *testing.T) {
	state := createTestState(t, 1, 2)
	assert.True(t, state.RemovePlayerWithUniqueID(1))
	assert.False(t, state.RemovePlayerWithUniqueID(1))
	assert.Len(t, state.Players, 1)
}

func TestApplyDistrictModifier(t *testing.T) {
	state := createTestState(t)

	for i := 0; i < MaxTollModifierCount; i++ {
		require.NoError(t, state.ApplyDistrictModifier(DistrictModifier{District: "centre", Modifier: Toll}))
	}
	err := state.ApplyDistrictModifier(DistrictModifier{District: "campus", Modifier: Toll})
	assert.ErrorIs(t, err, ErrModifierCap)
	assert.Equal(t, MaxTollModifierCount, state.CountModifiers(Toll))

	require.NoError(t, state.ApplyDistrictModifier(DistrictModifier{District: "campus", Modifier: Access, VehicleType: graph.Tram}))

	err = state.ApplyDistrictModifier(DistrictModifier{District: "campus", Modifier: Access, VehicleType: graph.Taxi, Delete: true})
	assert.ErrorIs(t, err, ErrModifierNotFound)

	require.NoError(t, state.ApplyDistrictModifier(DistrictModifier{District: "campus", Modifier: Access, VehicleType: graph.Tram, Delete: true}))
	assert.Zero(t, state.CountModifiers(Access))

	assert.Error(t, state.ApplyDistrictModifier(DistrictModifier{District: "campus", Modifier: "curfew"}))
}

func TestApplyEdgeRestriction(t *testing.T) {
	state := createTestState(t)

	require.NoError(t, state.ApplyEdgeRestriction(EdgeRestriction{NodeOne: 1, NodeTwo: 2, EdgeRestriction: graph.Taxi}))
	forward, _ := state.Map.Relationship(1, 2)
	reverse, _ := state.Map.Relationship(2, 1)
	assert.Equal(t, graph.Taxi, forward.Restriction)
	assert.Equal(t, graph.Taxi, reverse.Restriction)

	require.NoError(t, state.ApplyEdgeRestriction(EdgeRestriction{NodeOne: 1, NodeTwo: 2, EdgeRestriction: graph.Taxi, Delete: true}))
	forward, _ = state.Map.Relationship(1, 2)
	assert.Equal(t, graph.NoRestriction, forward.Restriction)

	require.NoError(t, state.ApplyEdgeRestriction(EdgeRestriction{NodeOne: 2, NodeTwo: 3, EdgeRestriction: graph.OneWay}))
	reverse, _ = state.Map.Relationship(3, 2)
	assert.Equal(t, graph.NoRestriction, reverse.Restriction, "one way is never mirrored")

	assert.ErrorIs(t, state.ApplyEdgeRestriction(EdgeRestriction{NodeOne: 1, NodeTwo: 8}), graph.ErrRelationshipNotFound)
}

func TestApplyEdgeRestriction_KeepsReverseRestriction(t *testing.T) {
	state := createTestState(t)
	require.NoError(t, state.Map.SetRestriction(2, 1, graph.Tram))

	require.NoError(t, state.ApplyEdgeRestriction(EdgeRestriction{NodeOne: 1, NodeTwo: 2, EdgeRestriction: graph.Emergency}))
	forward, _ := state.Map.Relationship(1, 2)
	reverse, _ := state.Map.Relationship(2, 1)
	assert.Equal(t, graph.Emergency, forward.Restriction)
	assert.Equal(t, graph.Tram, reverse.Restriction)

	require.NoError(t, state.ApplyEdgeRestriction(EdgeRestriction{NodeOne: 1, NodeTwo: 2, EdgeRestriction: graph.Emergency, Delete: true}))
	forward, _ = state.Map.Relationship(1, 2)
	reverse, _ = state.Map.Relationship(2, 1)
	assert.Equal(t, graph.NoRestriction, forward.Restriction)
	assert.Equal(t, graph.Tram, reverse.Restriction)
}

func TestApplyEdgeRestriction_DeleteNeedsMatchingRestriction(t *testing.T) {
	state := createTestState(t)
	require.NoError(t, state.ApplyEdgeRestriction(EdgeRestriction{NodeOne: 1, NodeTwo: 2, EdgeRestriction: graph.Emergency}))

	err := state.ApplyEdgeRestriction(EdgeRestriction{NodeOne: 1, NodeTwo: 2, EdgeRestriction: graph.Taxi, Delete: true})
	assert.ErrorIs(t, err, ErrRestrictionMismatch)

	forward, _ := state.Map.Relationship(1, 2)
	reverse, _ := state.Map.Relationship(2, 1)
	assert.Equal(t, graph.Emergency, forward.Restriction)
	assert.Equal(t, graph.Emergency, reverse.Restriction)
}

func TestClone_IsIndependent(t *testing.T) {
	state := createTestState(t, 1, 2)
	state.Begin()
	state.Actions = append(state.Actions, PlayerInput{InputType: NextTurn, PlayerID: 1})

	clone := state.Clone()
	require.Equal(t, state, clone)

	*clone.Players[1].PositionNodeID = 7
	clone.Players[1].ObjectiveCard.SpecialVehicleTypes[0] = graph.Tram
	clone.Actions = clone.Actions[:0]
	require.NoError(t, clone.Map.SetRestriction(1, 2, graph.Tram))
	require.NoError(t, clone.ApplyDistrictModifier(DistrictModifier{District: "centre", Modifier: Priority}))

	assert.Equal(t, graph.NodeID(1), *state.Players[1].PositionNodeID)
	assert.Equal(t, graph.Taxi, state.Players[1].ObjectiveCard.SpecialVehicleTypes[0])
	assert.Len(t, state.Actions, 1)
	rel, _ := state.Map.Relationship(1, 2)
	assert.Equal(t, graph.NoRestriction, rel.Restriction)
	assert.Empty(t, state.DistrictModifiers)
}

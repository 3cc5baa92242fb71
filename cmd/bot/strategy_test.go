package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/citygrid/game/engine"
	"github.com/wricardo/citygrid/game/graph"
)

func startedGame(t *testing.T) *engine.GameState {
	t.Helper()
	state, err := engine.NewGameState(1, "bot", engine.DefaultBoard(), 6)
	require.NoError(t, err)
	require.NoError(t, state.AssignPlayerToGame(engine.Player{UniqueID: 10, Name: "host"}))
	require.NoError(t, state.AssignPlayerToGame(engine.Player{UniqueID: 20, Name: "p1"}))
	state.Begin()
	return state
}

func withCard(t *testing.T, state *engine.GameState, card engine.ObjectiveCard) *engine.Player {
	t.Helper()
	p, err := state.PlayerWithUniqueID(20)
	require.NoError(t, err)
	p.ObjectiveCard = &card
	return p
}

func TestRoute_Plain(t *testing.T) {
	state := startedGame(t)
	withCard(t, state, engine.ObjectiveCard{PickUpNodeID: 4, DropOffNodeID: 2})

	route := NewStrategy().Route(state, 20)
	assert.Equal(t, []graph.NodeID{2, 3, 4}, route)
}

func TestRoute_DropOffAfterPickUp(t *testing.T) {
	state := startedGame(t)
	withCard(t, state, engine.ObjectiveCard{PickUpNodeID: 4, DropOffNodeID: 2, PickedPackageUp: true})

	assert.Equal(t, []graph.NodeID{2}, NewStrategy().Route(state, 20))
}

func TestRoute_ParkAndRideNeedsBus(t *testing.T) {
	state := startedGame(t)
	p := withCard(t, state, engine.ObjectiveCard{PickUpNodeID: 7, DropOffNodeID: 1})

	// 1 -> 7 is park & ride only
	assert.Empty(t, NewStrategy().Route(state, 20))

	p.IsBus = true
	assert.Equal(t, []graph.NodeID{7}, NewStrategy().Route(state, 20))
}

func TestRoute_EmergencyNeedsCard(t *testing.T) {
	state := startedGame(t)
	p := withCard(t, state, engine.ObjectiveCard{PickUpNodeID: 6, DropOffNodeID: 1})
	at := graph.NodeID(5)
	p.PositionNodeID = &at

	// 5 -> 2 runs against the one-way street, 5 -> 6 is an emergency lane
	assert.Empty(t, NewStrategy().Route(state, 20))

	p.ObjectiveCard.SpecialVehicleTypes = []graph.RestrictionType{graph.Emergency}
	assert.Equal(t, []graph.NodeID{6}, NewStrategy().Route(state, 20))
}

func TestRoute_Blocked(t *testing.T) {
	state := startedGame(t)
	withCard(t, state, engine.ObjectiveCard{PickUpNodeID: 4, DropOffNodeID: 2})

	s := NewStrategy()
	s.Block(3, 4)
	assert.Empty(t, s.Route(state, 20))

	s.Reset()
	assert.Len(t, s.Route(state, 20), 3)
}

func TestRoute_NothingToDo(t *testing.T) {
	state := startedGame(t)
	withCard(t, state, engine.ObjectiveCard{PickUpNodeID: 4, DropOffNodeID: 2, PickedPackageUp: true, Delivered: true})
	assert.Empty(t, NewStrategy().Route(state, 20))

	// the Orchestrator has no position
	assert.Empty(t, NewStrategy().Route(state, 10))
	assert.Empty(t, NewStrategy().Route(state, 99))
}

package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/citygrid/game/engine"
	"github.com/wricardo/citygrid/game/graph"
	"github.com/wricardo/citygrid/game/rules"
)

type runningGame struct {
	c      *Controller
	logger *recordingLogger
	id     engine.GameID
	host   engine.PlayerID
	player engine.PlayerID
}

// newRunningGame starts a two player game on the default board. The turn
// belongs to the orchestrator.
func newRunningGame(t *testing.T, opts ...Option) *runningGame {
	t.Helper()
	c, _, logger := newTestController(t, opts...)
	host := registerPlayer(t, c)
	player := registerPlayer(t, c)

	game, err := c.CreateNewGame(NewGameInfo{Name: "pipeline", Host: host})
	require.NoError(t, err)
	_, err = c.JoinGame(game.ID, engine.Player{UniqueID: player, Name: "one"})
	require.NoError(t, err)
	_, err = c.StartGame(game.ID)
	require.NoError(t, err)

	return &runningGame{c: c, logger: logger, id: game.ID, host: host, player: player}
}

func (g *runningGame) send(t *testing.T, input engine.PlayerInput) (*engine.GameState, error) {
	t.Helper()
	input.GameID = g.id
	return g.c.HandlePlayerInput(input)
}

func (g *runningGame) stored() *engine.GameState {
	return g.c.games[g.id]
}

func (g *runningGame) passTurn(t *testing.T, from engine.PlayerID) *engine.GameState {
	t.Helper()
	state, err := g.send(t, engine.PlayerInput{InputType: engine.NextTurn, PlayerID: from})
	require.NoError(t, err)
	return state
}

func moveTo(id engine.PlayerID, node graph.NodeID) engine.PlayerInput {
	return engine.PlayerInput{InputType: engine.Movement, PlayerID: id, RelatedNodeID: &node}
}

func busInput(id engine.PlayerID, on bool) engine.PlayerInput {
	return engine.PlayerInput{InputType: engine.SetPlayerBusBool, PlayerID: id, RelatedBool: &on}
}

func playerIn(t *testing.T, state *engine.GameState, id engine.PlayerID) engine.Player {
	t.Helper()
	p, err := state.PlayerWithUniqueID(id)
	require.NoError(t, err)
	return *p
}

func TestMovement_IsStaged(t *testing.T) {
	g := newRunningGame(t)
	g.passTurn(t, g.host)

	projected, err := g.send(t, moveTo(g.player, 2))
	require.NoError(t, err)

	p := playerIn(t, projected, g.player)
	assert.Equal(t, graph.NodeID(2), *p.PositionNodeID)
	assert.Equal(t, engine.DefaultStartingMoves-1, p.RemainingMoves)
	assert.Len(t, projected.Actions, 1)

	stored := playerIn(t, g.stored(), g.player)
	assert.Equal(t, graph.NodeID(1), *stored.PositionNodeID)
	assert.Equal(t, engine.DefaultStartingMoves, stored.RemainingMoves)
	assert.Len(t, g.stored().Actions, 1)

	// the next move is validated from the staged position
	projected, err = g.send(t, moveTo(g.player, 3))
	require.NoError(t, err)
	assert.Equal(t, graph.NodeID(3), *playerIn(t, projected, g.player).PositionNodeID)
}

func TestUndoAction(t *testing.T) {
	g := newRunningGame(t)
	g.passTurn(t, g.host)

	_, err := g.send(t, engine.PlayerInput{InputType: engine.UndoAction, PlayerID: g.player})
	assert.ErrorIs(t, err, ErrNothingToUndo)

	_, err = g.send(t, moveTo(g.player, 2))
	require.NoError(t, err)

	projected, err := g.send(t, engine.PlayerInput{InputType: engine.UndoAction, PlayerID: g.player})
	require.NoError(t, err)
	assert.Empty(t, projected.Actions)
	assert.Equal(t, graph.NodeID(1), *playerIn(t, projected, g.player).PositionNodeID)
}

func TestNextTurn_Commits(t *testing.T) {
	g := newRunningGame(t)
	g.passTurn(t, g.host)

	_, err := g.send(t, moveTo(g.player, 2))
	require.NoError(t, err)

	state := g.passTurn(t, g.player)
	assert.Empty(t, state.Actions)
	assert.Equal(t, engine.Orchestrator, state.CurrentPlayersTurn)

	stored := playerIn(t, g.stored(), g.player)
	assert.Equal(t, graph.NodeID(2), *stored.PositionNodeID)
	assert.Empty(t, g.stored().Actions)

	// a turn start resets the moves of the player whose turn begins
	state = g.passTurn(t, g.host)
	assert.Equal(t, engine.PlayerOne, state.CurrentPlayersTurn)
	assert.Equal(t, engine.DefaultStartingMoves, playerIn(t, state, g.player).RemainingMoves)
}

func TestNextTurn_InconsistentLogChangesNothing(t *testing.T) {
	g := newRunningGame(t)
	g.passTurn(t, g.host)

	_, err := g.send(t, moveTo(g.player, 2))
	require.NoError(t, err)

	// a staged move that no longer replays
	stored := g.stored()
	stored.Actions = append(stored.Actions, moveTo(g.player, 8))
	before := stored.Clone()

	_, err = g.send(t, engine.PlayerInput{InputType: engine.NextTurn, PlayerID: g.player})
	assert.ErrorIs(t, err, ErrReplayFailed)
	assert.Equal(t, before, g.stored())
	assert.Same(t, stored, g.stored())
}

func TestNextTurn_ReplayIsDeterministic(t *testing.T) {
	g := newRunningGame(t)
	g.passTurn(t, g.host)

	for _, node := range []graph.NodeID{2, 3, 4} {
		_, err := g.send(t, moveTo(g.player, node))
		require.NoError(t, err)
	}

	first, err := g.c.GetGameByID(g.id)
	require.NoError(t, err)
	second, err := g.c.GetGameByID(g.id)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMovement_MovesNeverGoNegative(t *testing.T) {
	g := newRunningGame(t, WithStartingMoves(2))
	g.passTurn(t, g.host)

	_, err := g.send(t, moveTo(g.player, 2))
	require.NoError(t, err)
	_, err = g.send(t, moveTo(g.player, 1))
	require.NoError(t, err)

	_, err = g.send(t, moveTo(g.player, 2))
	require.ErrorIs(t, err, ErrInputRejected)

	state, err := g.c.GetGameByID(g.id)
	require.NoError(t, err)
	assert.Zero(t, playerIn(t, state, g.player).RemainingMoves)
	assert.Len(t, state.Actions, 2)
}

func TestInputRejected_CarriesViolation(t *testing.T) {
	g := newRunningGame(t)

	// not player one's turn yet
	_, err := g.send(t, moveTo(g.player, 2))
	require.ErrorIs(t, err, ErrInputRejected)

	var v *rules.Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, 1, v.Rule)
	assert.Equal(t, 1, g.logger.count(Info)-countCreateAndStart)
}

// CreateNewGame and StartGame each log once at info level
const countCreateAndStart = 2

func TestHandlePlayerInput_UnknownGameAndPlayer(t *testing.T) {
	g := newRunningGame(t)

	_, err := g.c.HandlePlayerInput(engine.PlayerInput{InputType: engine.NextTurn, PlayerID: g.host, GameID: 1})
	assert.ErrorIs(t, err, ErrGameNotFound)

	_, err = g.send(t, engine.PlayerInput{InputType: engine.NextTurn, PlayerID: 99})
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestHandlePlayerInput_MissingPayload(t *testing.T) {
	g := newRunningGame(t)

	_, err := g.send(t, engine.PlayerInput{InputType: engine.ModifyDistrict, PlayerID: g.host})
	assert.ErrorIs(t, err, ErrMissingPayload)
	assert.Empty(t, g.stored().Actions)
}

func TestBusScenario(t *testing.T) {
	g := newRunningGame(t)
	g.passTurn(t, g.host)

	_, err := g.send(t, busInput(g.player, true))
	require.NoError(t, err)
	assert.True(t, playerIn(t, g.stored(), g.player).IsBus)

	_, err = g.send(t, moveTo(g.player, 2))
	require.ErrorIs(t, err, ErrInputRejected)
	assert.Contains(t, err.Error(), "park & ride")

	_, err = g.send(t, busInput(g.player, false))
	require.NoError(t, err)

	state, err := g.send(t, moveTo(g.player, 2))
	require.NoError(t, err)
	assert.Equal(t, graph.NodeID(2), *playerIn(t, state, g.player).PositionNodeID)
}

func TestBusScenario_ParkAndRideLine(t *testing.T) {
	g := newRunningGame(t)
	g.passTurn(t, g.host)

	_, err := g.send(t, moveTo(g.player, 7))
	require.ErrorIs(t, err, ErrInputRejected)

	_, err = g.send(t, busInput(g.player, true))
	require.NoError(t, err)
	_, err = g.send(t, moveTo(g.player, 7))
	require.NoError(t, err)
	state, err := g.send(t, moveTo(g.player, 8))
	require.NoError(t, err)
	assert.Equal(t, graph.NodeID(8), *playerIn(t, state, g.player).PositionNodeID)

	// off the parking spots the bus flag cannot change
	_, err = g.send(t, busInput(g.player, false))
	assert.ErrorIs(t, err, ErrInputRejected)
}

func TestModifyDistrict_Cap(t *testing.T) {
	g := newRunningGame(t)

	districts := []graph.DistrictID{"centre", "oldtown", "campus"}
	for _, d := range districts {
		_, err := g.send(t, engine.PlayerInput{
			InputType:        engine.ModifyDistrict,
			PlayerID:         g.host,
			DistrictModifier: &engine.DistrictModifier{District: d, Modifier: engine.Toll, VehicleType: graph.Taxi},
		})
		require.NoError(t, err)
	}
	assert.Empty(t, g.stored().DistrictModifiers)

	_, err := g.send(t, engine.PlayerInput{
		InputType:        engine.ModifyDistrict,
		PlayerID:         g.host,
		DistrictModifier: &engine.DistrictModifier{District: "harbour", Modifier: engine.Toll},
	})
	assert.ErrorIs(t, err, engine.ErrModifierCap)
	assert.Len(t, g.stored().Actions, 3)

	state := g.passTurn(t, g.host)
	assert.Len(t, state.DistrictModifiers, 3)
	assert.Equal(t, 3, g.stored().CountModifiers(engine.Toll))
}

func TestModifyDistrict_OnlyOrchestrator(t *testing.T) {
	g := newRunningGame(t)
	g.passTurn(t, g.host)

	_, err := g.send(t, engine.PlayerInput{
		InputType:        engine.ModifyDistrict,
		PlayerID:         g.player,
		DistrictModifier: &engine.DistrictModifier{District: "centre", Modifier: engine.Access, VehicleType: graph.Tram},
	})
	assert.ErrorIs(t, err, ErrInputRejected)
}

func TestModifyEdgeRestrictions_AppliesImmediately(t *testing.T) {
	g := newRunningGame(t)

	_, err := g.send(t, engine.PlayerInput{
		InputType:    engine.ModifyEdgeRestrictions,
		PlayerID:     g.host,
		EdgeModifier: &engine.EdgeRestriction{NodeOne: 1, NodeTwo: 2, EdgeRestriction: graph.Taxi},
	})
	require.NoError(t, err)

	forward, ok := g.stored().Map.Relationship(1, 2)
	require.True(t, ok)
	assert.Equal(t, graph.Taxi, forward.Restriction)
	backward, ok := g.stored().Map.Relationship(2, 1)
	require.True(t, ok)
	assert.Equal(t, graph.Taxi, backward.Restriction)
	assert.Empty(t, g.stored().Actions)

	// player one's card grants taxi
	g.passTurn(t, g.host)
	_, err = g.send(t, moveTo(g.player, 2))
	assert.NoError(t, err)
}

func TestLeaveGame(t *testing.T) {
	g := newRunningGame(t)
	g.passTurn(t, g.host)
	_, err := g.send(t, moveTo(g.player, 2))
	require.NoError(t, err)

	state, err := g.send(t, engine.PlayerInput{InputType: engine.LeaveGame, PlayerID: g.player})
	require.NoError(t, err)
	assert.Len(t, state.Players, 1)
	assert.Empty(t, state.Actions)
	assert.Equal(t, engine.Orchestrator, state.CurrentPlayersTurn)

	state, err = g.send(t, engine.PlayerInput{InputType: engine.LeaveGame, PlayerID: g.host})
	require.NoError(t, err)
	assert.Empty(t, state.Players)
	assert.Empty(t, g.c.GetCreatedGames())
}

func TestStartGameInput(t *testing.T) {
	c, _, _ := newTestController(t)
	host := registerPlayer(t, c)
	player := registerPlayer(t, c)
	game, err := c.CreateNewGame(NewGameInfo{Host: host})
	require.NoError(t, err)

	start := engine.PlayerInput{InputType: engine.StartGame, PlayerID: host, GameID: game.ID}
	_, err = c.HandlePlayerInput(start)
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	_, err = c.JoinGame(game.ID, engine.Player{UniqueID: player})
	require.NoError(t, err)

	_, err = c.HandlePlayerInput(engine.PlayerInput{InputType: engine.StartGame, PlayerID: player, GameID: game.ID})
	assert.ErrorIs(t, err, ErrInputRejected)

	state, err := c.HandlePlayerInput(start)
	require.NoError(t, err)
	assert.False(t, state.IsLobby)
	p := playerIn(t, state, player)
	require.NotNil(t, p.PositionNodeID)
	assert.Equal(t, state.StartNodeID, *p.PositionNodeID)
	require.NotNil(t, p.ObjectiveCard)
	assert.Nil(t, playerIn(t, state, host).PositionNodeID)
}

func TestChangeRole(t *testing.T) {
	c, _, _ := newTestController(t)
	host := registerPlayer(t, c)
	player := registerPlayer(t, c)
	game, err := c.CreateNewGame(NewGameInfo{Host: host})
	require.NoError(t, err)
	_, err = c.JoinGame(game.ID, engine.Player{UniqueID: player})
	require.NoError(t, err)

	taken := engine.Orchestrator
	_, err = c.HandlePlayerInput(engine.PlayerInput{InputType: engine.ChangeRole, PlayerID: player, GameID: game.ID, RelatedRole: &taken})
	assert.ErrorIs(t, err, engine.ErrRoleTaken)

	three := engine.PlayerThree
	state, err := c.HandlePlayerInput(engine.PlayerInput{InputType: engine.ChangeRole, PlayerID: player, GameID: game.ID, RelatedRole: &three})
	require.NoError(t, err)
	assert.Equal(t, engine.PlayerThree, playerIn(t, state, player).InGameID)
}

func TestHandlePlayerInput_NoValidator(t *testing.T) {
	c := New(nil, nil)
	_, err := c.HandlePlayerInput(engine.PlayerInput{InputType: engine.NextTurn})
	assert.ErrorIs(t, err, ErrNoValidator)
}

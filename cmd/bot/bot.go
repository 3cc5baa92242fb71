package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/citygrid/game/engine"
	"github.com/wricardo/citygrid/game/graph"
	"github.com/wricardo/citygrid/game/service"
)

// maxRejections bounds replanning after the server refuses a step
const maxRejections = 3

// Bot drives one game: a host acting as Orchestrator and a set of players
// routing towards their objectives
type Bot struct {
	client   *Client
	strategy *Strategy
	logger   zerolog.Logger
	delay    time.Duration

	GameID  engine.GameID
	Host    engine.PlayerID
	Players []engine.PlayerID
	// Moves counts accepted movements per player
	Moves map[engine.PlayerID]int
}

// Setup creates a game on board with the host and n players and starts it
func Setup(ctx context.Context, client *Client, logger zerolog.Logger, board string, n int) (*Bot, error) {
	if n < 1 || n > 4 {
		return nil, fmt.Errorf("players must be between 1 and 4, got %d", n)
	}

	host, err := client.IssuePlayerID(ctx)
	if err != nil {
		return nil, err
	}
	state, err := client.CreateGame(ctx, service.CreateGameRequest{
		Name:     "bot-game",
		HostID:   host,
		HostName: "bot-host",
		Board:    board,
	})
	if err != nil {
		return nil, err
	}

	b := &Bot{
		client:   client,
		strategy: NewStrategy(),
		logger:   logger,
		GameID:   state.ID,
		Host:     host,
		Moves:    make(map[engine.PlayerID]int),
	}

	for i := 0; i < n; i++ {
		id, err := client.IssuePlayerID(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := client.JoinGame(ctx, b.GameID, service.JoinGameRequest{PlayerID: id, Name: fmt.Sprintf("bot-%d", i+1)}); err != nil {
			return nil, err
		}
		b.Players = append(b.Players, id)
	}

	if _, err := b.submit(ctx, engine.PlayerInput{InputType: engine.StartGame, PlayerID: host}); err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	b.logger.Info().Int32("game_id", int32(b.GameID)).Int("players", n).Str("board", state.BoardName).Msg("Game started")
	return b, nil
}

// Play runs up to turns committed turns and returns the final state. It
// stops early once every objective is delivered.
func (b *Bot) Play(ctx context.Context, turns int) (*engine.GameState, error) {
	var state *engine.GameState
	for turn := 0; turn < turns; turn++ {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		b.checkIn(ctx)

		var err error
		state, err = b.client.GetGame(ctx, b.GameID)
		if err != nil {
			return nil, err
		}
		if allDelivered(state) {
			b.logger.Info().Int("turn", turn).Msg("All objectives delivered")
			return state, nil
		}

		current, ok := state.PlayerWithRole(state.CurrentPlayersTurn)
		if !ok {
			return state, fmt.Errorf("no player holds role %s", state.CurrentPlayersTurn)
		}
		if current.InGameID != engine.Orchestrator {
			if state, err = b.takeTurn(ctx, state, current.UniqueID); err != nil {
				return state, err
			}
		}

		if state, err = b.submit(ctx, engine.PlayerInput{InputType: engine.NextTurn, PlayerID: current.UniqueID}); err != nil {
			return state, fmt.Errorf("next turn: %w", err)
		}

		if b.delay > 0 {
			select {
			case <-time.After(b.delay):
			case <-ctx.Done():
				return state, ctx.Err()
			}
		}
	}
	return state, nil
}

// takeTurn stages movements along the planned route until the player
// arrives, runs out of moves or keeps getting rejected
func (b *Bot) takeTurn(ctx context.Context, state *engine.GameState, id engine.PlayerID) (*engine.GameState, error) {
	b.strategy.Reset()
	rejections := 0
	for {
		route := b.strategy.Route(state, id)
		if len(route) == 0 {
			return state, nil
		}

		player, err := state.PlayerWithUniqueID(id)
		if err != nil {
			return state, err
		}
		from, step := *player.PositionNodeID, route[0]
		if rel, ok := state.Map.Relationship(from, step); ok && state.MovementCost(player, rel) > player.RemainingMoves {
			return state, nil
		}

		next, err := b.submit(ctx, engine.PlayerInput{InputType: engine.Movement, PlayerID: id, RelatedNodeID: &step})
		var apiErr *APIError
		switch {
		case err == nil:
			state = next
			b.Moves[id]++
			b.logger.Debug().Int32("player_id", int32(id)).Int("from", int(from)).Int("to", int(step)).Msg("Moved")
		case errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict:
			rejections++
			b.logger.Debug().Int32("player_id", int32(id)).Int("to", int(step)).Str("reason", apiErr.Message).Msg("Move rejected")
			if rejections >= maxRejections {
				return state, nil
			}
			b.strategy.Block(from, step)
		default:
			return state, err
		}
	}
}

func (b *Bot) submit(ctx context.Context, input engine.PlayerInput) (*engine.GameState, error) {
	input.GameID = b.GameID
	return b.client.Submit(ctx, b.GameID, input)
}

func (b *Bot) checkIn(ctx context.Context) {
	for _, id := range append([]engine.PlayerID{b.Host}, b.Players...) {
		if err := b.client.CheckIn(ctx, id); err != nil {
			b.logger.Warn().Err(err).Int32("player_id", int32(id)).Msg("Check-in failed")
		}
	}
}

func allDelivered(state *engine.GameState) bool {
	found := false
	for _, p := range state.Players {
		if p.ObjectiveCard == nil {
			continue
		}
		found = true
		if !p.ObjectiveCard.Delivered {
			return false
		}
	}
	return found
}

func printReport(w io.Writer, state *engine.GameState, moves map[engine.PlayerID]int) {
	fmt.Fprintf(w, "\n=== GAME %d (%s) ===\n", state.ID, state.BoardName)
	fmt.Fprintf(w, "Turn: %s\n", state.CurrentPlayersTurn)
	for _, p := range state.Players {
		if p.InGameID == engine.Orchestrator {
			continue
		}
		position := "-"
		if p.PositionNodeID != nil {
			position = nodeLabel(state.Map, *p.PositionNodeID)
		}
		status := "no objective"
		if card := p.ObjectiveCard; card != nil {
			switch {
			case card.Delivered:
				status = "delivered"
			case card.PickedPackageUp:
				status = fmt.Sprintf("carrying to %s", nodeLabel(state.Map, card.DropOffNodeID))
			default:
				status = fmt.Sprintf("heading to %s", nodeLabel(state.Map, card.PickUpNodeID))
			}
		}
		fmt.Fprintf(w, "%-13s %-10s at %-22s %-30s moves: %d\n", p.InGameID, p.Name, position, status, moves[p.UniqueID])
	}
}

func nodeLabel(m *graph.Map, id graph.NodeID) string {
	if m != nil {
		if n, err := m.NodeByID(id); err == nil && n.Name != "" {
			return fmt.Sprintf("%d (%s)", id, n.Name)
		}
	}
	return fmt.Sprintf("%d", id)
}

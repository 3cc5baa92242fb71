package service

import (
	"time"

	"github.com/wricardo/citygrid/game/engine"
)

// PlayerInfo is returned when a player id is issued
type PlayerInfo struct {
	PlayerID engine.PlayerID `json:"player_id"`
	// TimeoutSeconds is how long the id lives without a check-in
	TimeoutSeconds int       `json:"timeout_seconds"`
	IssuedAt       time.Time `json:"issued_at"`
}

// CreateGameRequest describes a new game
type CreateGameRequest struct {
	Name     string          `json:"name"`
	HostID   engine.PlayerID `json:"host_id"`
	HostName string          `json:"host_name"`
	// Board is a board id from ListBoards; empty selects the default board
	Board string `json:"board,omitempty"`
}

// JoinGameRequest describes a player joining a lobby
type JoinGameRequest struct {
	PlayerID engine.PlayerID `json:"player_id"`
	Name     string          `json:"name"`
}

// GameSummary is the listing view of a game
type GameSummary struct {
	ID          engine.GameID     `json:"id"`
	Name        string            `json:"name"`
	BoardName   string            `json:"board_name"`
	IsLobby     bool              `json:"is_lobby"`
	PlayerCount int               `json:"player_count"`
	Roles       []engine.InGameID `json:"roles"`
	CurrentTurn engine.InGameID   `json:"current_turn,omitempty"`
	Pending     int               `json:"pending_actions"`
}

// Summarize builds the listing view of a state
func Summarize(state *engine.GameState) *GameSummary {
	summary := &GameSummary{
		ID:          state.ID,
		Name:        state.Name,
		BoardName:   state.BoardName,
		IsLobby:     state.IsLobby,
		PlayerCount: len(state.Players),
		Roles:       make([]engine.InGameID, 0, len(state.Players)),
		Pending:     len(state.Actions),
	}
	for _, p := range state.Players {
		summary.Roles = append(summary.Roles, p.InGameID)
	}
	if !state.IsLobby {
		summary.CurrentTurn = state.CurrentPlayersTurn
	}
	return summary
}

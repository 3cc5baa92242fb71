package service

import (
	"context"

	"github.com/wricardo/citygrid/game/config"
	"github.com/wricardo/citygrid/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Players
	IssuePlayerID(ctx context.Context) (*PlayerInfo, error)
	CheckIn(ctx context.Context, playerID engine.PlayerID) error

	// Games
	CreateGame(ctx context.Context, req CreateGameRequest) (*engine.GameState, error)
	JoinGame(ctx context.Context, gameID engine.GameID, req JoinGameRequest) (*engine.GameState, error)
	SubmitInput(ctx context.Context, input engine.PlayerInput) (*engine.GameState, error)
	RemovePlayer(ctx context.Context, gameID engine.GameID, playerID engine.PlayerID) error

	// Game State
	GetGame(ctx context.Context, gameID engine.GameID) (*engine.GameState, error)
	ListGames(ctx context.Context) ([]*GameSummary, error)
	ListLobbies(ctx context.Context) ([]*GameSummary, error)

	// Boards
	ListBoards(ctx context.Context) ([]*config.BoardInfo, error)

	// Maintenance
	Sweep(ctx context.Context) int
}

// BoardManager resolves board names for new games
type BoardManager interface {
	Resolve(name string) (*engine.Board, error)
	ListBoards() ([]*config.BoardInfo, error)
}

// Broadcaster receives every state change the service commits
type Broadcaster interface {
	Publish(state *engine.GameState)
	CloseGame(gameID engine.GameID)
}

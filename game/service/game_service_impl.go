package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"

	"github.com/wricardo/citygrid/game/config"
	"github.com/wricardo/citygrid/game/controller"
	"github.com/wricardo/citygrid/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	ctrl          *controller.Controller
	boards        BoardManager
	broadcaster   Broadcaster
	playerTimeout time.Duration
	now           func() time.Time
	mu            deadlock.Mutex
}

// Option configures the service
type Option func(*gameServiceImpl)

// WithBroadcaster publishes committed states
func WithBroadcaster(b Broadcaster) Option {
	return func(s *gameServiceImpl) { s.broadcaster = b }
}

// WithPlayerTimeout reports the controller's player timeout to clients
func WithPlayerTimeout(timeout time.Duration) Option {
	return func(s *gameServiceImpl) { s.playerTimeout = timeout }
}

// NewGameService creates a new game service instance. The service is the
// only caller of the controller, so one lock serializes every operation.
func NewGameService(ctrl *controller.Controller, boards BoardManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		ctrl:          ctrl,
		boards:        boards,
		playerTimeout: controller.DefaultPlayerTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *gameServiceImpl) Logger() *zerolog.Logger {
	logger := log.With().Str("service", "games").Logger()
	return &logger
}

// locked runs fn under the service lock and closes the games the
// controller dropped while fn ran. Publishing happens inside fn so
// subscribers see states in commit order.
func (s *gameServiceImpl) locked(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var removed []engine.GameID
	err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		before := s.ctrl.GameIDs()
		defer func() {
			removed = removedIDs(before, s.ctrl.GameIDs())
		}()
		return fn()
	}()

	if s.broadcaster != nil {
		for _, id := range removed {
			s.broadcaster.CloseGame(id)
		}
	}
	return err
}

func (s *gameServiceImpl) publish(state *engine.GameState) {
	if s.broadcaster != nil && state != nil {
		s.broadcaster.Publish(state)
	}
}

func removedIDs(before, after []engine.GameID) []engine.GameID {
	remaining := make(map[engine.GameID]bool, len(after))
	for _, id := range after {
		remaining[id] = true
	}
	var removed []engine.GameID
	for _, id := range before {
		if !remaining[id] {
			removed = append(removed, id)
		}
	}
	return removed
}

// IssuePlayerID registers a new player id
func (s *gameServiceImpl) IssuePlayerID(ctx context.Context) (*PlayerInfo, error) {
	var id engine.PlayerID
	err := s.locked(ctx, func() (err error) {
		id, err = s.ctrl.GeneratePlayerID()
		return err
	})
	if err != nil {
		return nil, err
	}

	return &PlayerInfo{
		PlayerID:       id,
		TimeoutSeconds: int(s.playerTimeout / time.Second),
		IssuedAt:       s.now(),
	}, nil
}

// CheckIn keeps a player id alive
func (s *gameServiceImpl) CheckIn(ctx context.Context, playerID engine.PlayerID) error {
	return s.locked(ctx, func() error {
		return s.ctrl.UpdateCheckInAndRemoveInactive(playerID)
	})
}

// CreateGame creates a lobby on the requested board
func (s *gameServiceImpl) CreateGame(ctx context.Context, req CreateGameRequest) (*engine.GameState, error) {
	board, err := s.boards.Resolve(req.Board)
	if err != nil {
		return nil, fmt.Errorf("failed to load board %q: %w", req.Board, err)
	}

	var state *engine.GameState
	err = s.locked(ctx, func() (err error) {
		state, err = s.ctrl.CreateNewGame(controller.NewGameInfo{
			Name:     req.Name,
			Host:     req.HostID,
			HostName: req.HostName,
			Board:    board,
		})
		if err == nil {
			s.publish(state)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger().Info().Int32("game", int32(state.ID)).Str("board", state.BoardName).Msg("game created")
	return state, nil
}

// JoinGame adds a player to a lobby
func (s *gameServiceImpl) JoinGame(ctx context.Context, gameID engine.GameID, req JoinGameRequest) (*engine.GameState, error) {
	var state *engine.GameState
	err := s.locked(ctx, func() (err error) {
		state, err = s.ctrl.JoinGame(gameID, engine.Player{UniqueID: req.PlayerID, Name: req.Name})
		if err == nil {
			s.publish(state)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// SubmitInput routes a player input through the controller
func (s *gameServiceImpl) SubmitInput(ctx context.Context, input engine.PlayerInput) (*engine.GameState, error) {
	var state *engine.GameState
	err := s.locked(ctx, func() (err error) {
		state, err = s.ctrl.HandlePlayerInput(input)
		if err == nil && len(state.Players) > 0 {
			s.publish(state)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// RemovePlayer removes a player from a game
func (s *gameServiceImpl) RemovePlayer(ctx context.Context, gameID engine.GameID, playerID engine.PlayerID) error {
	return s.locked(ctx, func() error {
		if err := s.ctrl.RemovePlayerFromGame(gameID, playerID); err != nil {
			return err
		}
		// the game is gone once its last player left
		if state, err := s.ctrl.GetGameByID(gameID); err == nil {
			s.publish(state)
		}
		return nil
	})
}

// GetGame returns the projected state of a game
func (s *gameServiceImpl) GetGame(ctx context.Context, gameID engine.GameID) (*engine.GameState, error) {
	var state *engine.GameState
	err := s.locked(ctx, func() (err error) {
		state, err = s.ctrl.GetGameByID(gameID)
		return err
	})
	return state, err
}

// ListGames returns every game
func (s *gameServiceImpl) ListGames(ctx context.Context) ([]*GameSummary, error) {
	var states []*engine.GameState
	err := s.locked(ctx, func() error {
		states = s.ctrl.GetCreatedGames()
		return nil
	})
	return summarizeAll(states), err
}

// ListLobbies returns the games that can still be joined
func (s *gameServiceImpl) ListLobbies(ctx context.Context) ([]*GameSummary, error) {
	var states []*engine.GameState
	err := s.locked(ctx, func() error {
		states = s.ctrl.GetAllLobbies()
		return nil
	})
	return summarizeAll(states), err
}

func summarizeAll(states []*engine.GameState) []*GameSummary {
	summaries := make([]*GameSummary, 0, len(states))
	for _, state := range states {
		summaries = append(summaries, Summarize(state))
	}
	return summaries
}

// ListBoards returns the available boards
func (s *gameServiceImpl) ListBoards(ctx context.Context) ([]*config.BoardInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.boards.ListBoards()
}

// Sweep purges expired players and empty games and returns how many games
// were removed
func (s *gameServiceImpl) Sweep(ctx context.Context) int {
	var removed int
	_ = s.locked(ctx, func() error {
		before := len(s.ctrl.GameIDs())
		s.ctrl.RemoveInactive()
		removed = before - len(s.ctrl.GameIDs())
		return nil
	})
	return removed
}

// RunSweeper sweeps every interval until ctx is done
func RunSweeper(ctx context.Context, svc GameService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := svc.Sweep(ctx); removed > 0 {
				log.Debug().Int("removed", removed).Msg("swept empty games")
			}
		}
	}
}

var _ GameService = (*gameServiceImpl)(nil)

package controller

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wricardo/citygrid/game/engine"
)

var (
	ErrUnknownPlayer     = errors.New("unknown or expired player id")
	ErrAlreadyInGame     = errors.New("player already belongs to a game")
	ErrPlayerNotInGame   = errors.New("player is not in the game")
	ErrGameNotFound      = errors.New("game not found")
	ErrNoOrchestrator    = errors.New("game needs exactly one orchestrator")
	ErrNotEnoughPlayers  = errors.New("not enough players")
	ErrIDExhausted       = errors.New("could not find an unused id")
	ErrNothingToUndo     = errors.New("there are no actions to undo")
	ErrMissingPayload    = errors.New("input is missing its payload")
	ErrUnknownInput      = errors.New("unknown input type")
	ErrInputRejected     = errors.New("input rejected")
	ErrReplayFailed      = errors.New("pending actions could not be replayed")
	ErrNegativeMoves     = errors.New("remaining moves would become negative")
	ErrNoValidator       = errors.New("controller has no validator")
	ErrInvalidGameConfig = errors.New("invalid game configuration")
)

const (
	// MaxIDAttempts bounds the collision retry loop for player and game ids
	MaxIDAttempts = 100_000

	// DefaultPlayerTimeout is how long a player id lives without a check-in
	DefaultPlayerTimeout = 90 * time.Second

	// MinPlayersToStart counts the Orchestrator
	MinPlayersToStart = 2
)

// NewGameInfo describes a game to create
type NewGameInfo struct {
	Name     string
	Host     engine.PlayerID
	HostName string
	// Board is the board to play on; nil selects the built-in board
	Board *engine.Board
}

// Controller manages games and player identities
type Controller struct {
	games     map[engine.GameID]*engine.GameState
	playerIDs map[engine.PlayerID]time.Time

	logger    Logger
	validator Validator
	clock     Clock
	random    Random

	startingMoves int
	playerTimeout time.Duration
}

// New creates a controller. A nil logger discards log events.
func New(logger Logger, validator Validator, opts ...Option) *Controller {
	if logger == nil {
		logger = nopLogger{}
	}
	c := &Controller{
		games:         make(map[engine.GameID]*engine.GameState),
		playerIDs:     make(map[engine.PlayerID]time.Time),
		logger:        logger,
		validator:     validator,
		clock:         systemClock{},
		random:        mathRandom{},
		startingMoves: engine.DefaultStartingMoves,
		playerTimeout: DefaultPlayerTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GeneratePlayerID issues and registers a new player id
func (c *Controller) GeneratePlayerID() (engine.PlayerID, error) {
	for attempt := 0; attempt < MaxIDAttempts; attempt++ {
		id := engine.PlayerID(c.random.Int32())
		if id == 0 {
			continue
		}
		if _, taken := c.playerIDs[id]; taken {
			continue
		}
		c.playerIDs[id] = c.clock.Now()
		c.logger.Log(Debug, fmt.Sprintf("Generated player id %d", id), "controller.GeneratePlayerID")
		return id, nil
	}
	c.logger.Log(Error, "Player id space exhausted", "controller.GeneratePlayerID")
	return 0, fmt.Errorf("%w: no unused player id after %d attempts", ErrIDExhausted, MaxIDAttempts)
}

// PlayerIDCount returns the number of live player ids
func (c *Controller) PlayerIDCount() int {
	return len(c.playerIDs)
}

// IsRegistered reports whether the player id is live
func (c *Controller) IsRegistered(id engine.PlayerID) bool {
	c.purge()
	_, ok := c.playerIDs[id]
	return ok
}

// CreateNewGame creates a lobby with the host as its first player
func (c *Controller) CreateNewGame(info NewGameInfo) (*engine.GameState, error) {
	c.purge()

	if _, ok := c.playerIDs[info.Host]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlayer, info.Host)
	}
	if existing, ok := c.gameOf(info.Host); ok {
		return nil, fmt.Errorf("%w: player %d is in game %d", ErrAlreadyInGame, info.Host, existing.ID)
	}

	id, err := c.generateGameID()
	if err != nil {
		return nil, err
	}

	name := info.Name
	if name == "" {
		name = fmt.Sprintf("game-%d", id)
	}
	game, err := engine.NewGameState(id, name, info.Board, c.startingMoves)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGameConfig, err)
	}
	if err := game.AssignPlayerToGame(engine.Player{UniqueID: info.Host, Name: info.HostName}); err != nil {
		return nil, err
	}

	c.games[id] = game
	c.logger.Log(Info, fmt.Sprintf("Player %d created game %d on board %s", info.Host, id, game.BoardName), "controller.CreateNewGame")
	return game.Clone(), nil
}

func (c *Controller) generateGameID() (engine.GameID, error) {
	for attempt := 0; attempt < MaxIDAttempts; attempt++ {
		id := engine.GameID(c.random.Int32())
		if id == 0 {
			continue
		}
		if _, taken := c.games[id]; !taken {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: no unused game id after %d attempts", ErrIDExhausted, MaxIDAttempts)
}

// StartGame takes the game out of the lobby
func (c *Controller) StartGame(gameID engine.GameID) (*engine.GameState, error) {
	c.purge()

	game, ok := c.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrGameNotFound, gameID)
	}
	if err := c.startGame(game); err != nil {
		return nil, err
	}
	return c.snapshot(game)
}

func (c *Controller) startGame(game *engine.GameState) error {
	if !game.IsLobby {
		return engine.ErrGameAlreadyStarted
	}
	if game.CountRole(engine.Orchestrator) != 1 {
		return ErrNoOrchestrator
	}
	if seated := len(game.Players) - game.CountRole(engine.Undecided); seated < MinPlayersToStart {
		return fmt.Errorf("%w: need %d seated players, have %d", ErrNotEnoughPlayers, MinPlayersToStart, seated)
	}

	game.Begin()
	c.logger.Log(Info, fmt.Sprintf("Game %d started with %d players", game.ID, len(game.Players)), "controller.StartGame")
	return nil
}

// JoinGame adds the player to a lobby
func (c *Controller) JoinGame(gameID engine.GameID, player engine.Player) (*engine.GameState, error) {
	c.purge()

	if _, ok := c.playerIDs[player.UniqueID]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlayer, player.UniqueID)
	}
	if existing, ok := c.gameOf(player.UniqueID); ok {
		return nil, fmt.Errorf("%w: player %d is in game %d", ErrAlreadyInGame, player.UniqueID, existing.ID)
	}
	game, ok := c.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrGameNotFound, gameID)
	}
	if err := game.AssignPlayerToGame(player); err != nil {
		return nil, err
	}

	c.logger.Log(Debug, fmt.Sprintf("Player %d joined game %d", player.UniqueID, gameID), "controller.JoinGame")
	return c.snapshot(game)
}

// GetGameByID returns the projected state of a game
func (c *Controller) GetGameByID(gameID engine.GameID) (*engine.GameState, error) {
	c.purge()

	game, ok := c.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrGameNotFound, gameID)
	}
	return c.snapshot(game)
}

// GetAllLobbies returns the games that have not started, ordered by id
func (c *Controller) GetAllLobbies() []*engine.GameState {
	c.purge()
	return c.collect(func(g *engine.GameState) bool { return g.IsLobby })
}

// GetCreatedGames returns every game, ordered by id
func (c *Controller) GetCreatedGames() []*engine.GameState {
	c.purge()
	return c.collect(func(*engine.GameState) bool { return true })
}

func (c *Controller) collect(keep func(*engine.GameState) bool) []*engine.GameState {
	ids := make([]engine.GameID, 0, len(c.games))
	for id, g := range c.games {
		if keep(g) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]*engine.GameState, 0, len(ids))
	for _, id := range ids {
		snap, err := c.snapshot(c.games[id])
		if err != nil {
			c.logger.Log(Error, fmt.Sprintf("Game %d has an inconsistent action log: %v", id, err), "controller.collect")
			snap = c.games[id].Clone()
		}
		result = append(result, snap)
	}
	return result
}

// RemovePlayerFromGame removes the player from the game and drops the game
// once it is empty
func (c *Controller) RemovePlayerFromGame(gameID engine.GameID, playerID engine.PlayerID) error {
	c.purge()

	game, ok := c.games[gameID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrGameNotFound, gameID)
	}
	if err := c.removePlayer(game, playerID); err != nil {
		return err
	}
	c.purge()
	return nil
}

// UpdateCheckInAndRemoveInactive refreshes the player's check-in and purges
// expired players and empty games
func (c *Controller) UpdateCheckInAndRemoveInactive(playerID engine.PlayerID) error {
	c.purge()

	if _, ok := c.playerIDs[playerID]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPlayer, playerID)
	}
	c.playerIDs[playerID] = c.clock.Now()
	return nil
}

// RemoveInactive purges expired players and empty games
func (c *Controller) RemoveInactive() {
	c.purge()
}

// purge drops player ids older than the timeout, removes them from their
// games and drops games left without players
func (c *Controller) purge() {
	now := c.clock.Now()
	for id, checkedIn := range c.playerIDs {
		if now.Sub(checkedIn) <= c.playerTimeout {
			continue
		}
		delete(c.playerIDs, id)
		c.logger.Log(Debug, fmt.Sprintf("Player %d expired", id), "controller.purge")
		if game, ok := c.gameOf(id); ok {
			if err := c.removePlayer(game, id); err != nil {
				c.logger.Log(Error, fmt.Sprintf("Could not remove expired player %d: %v", id, err), "controller.purge")
			}
		}
	}

	for id, game := range c.games {
		if len(game.Players) == 0 {
			delete(c.games, id)
			c.logger.Log(Debug, fmt.Sprintf("Removed empty game %d", id), "controller.purge")
		}
	}
}

// removePlayer takes the player out of the game. When the player whose
// turn it was leaves a running game, their staged actions are dropped and
// the turn moves on.
func (c *Controller) removePlayer(game *engine.GameState, playerID engine.PlayerID) error {
	player, err := game.PlayerWithUniqueID(playerID)
	if err != nil {
		return fmt.Errorf("%w: player %d, game %d", ErrPlayerNotInGame, playerID, game.ID)
	}
	hadTurn := !game.IsLobby && player.InGameID == game.CurrentPlayersTurn

	game.RemovePlayerWithUniqueID(playerID)
	if hadTurn && len(game.Players) > 0 {
		game.Actions = []engine.PlayerInput{}
		game.NextPlayerTurn()
	}
	return nil
}

func (c *Controller) gameOf(playerID engine.PlayerID) (*engine.GameState, bool) {
	for _, game := range c.games {
		if game.ContainsPlayerWithUniqueID(playerID) {
			return game, true
		}
	}
	return nil, false
}

// GameIDs returns the ids of the stored games in ascending order without
// purging
func (c *Controller) GameIDs() []engine.GameID {
	ids := make([]engine.GameID, 0, len(c.games))
	for id := range c.games {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

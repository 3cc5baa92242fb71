package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/citygrid/game/config"
	"github.com/wricardo/citygrid/game/controller"
	"github.com/wricardo/citygrid/game/engine"
	"github.com/wricardo/citygrid/game/rules"
	"github.com/wricardo/citygrid/game/service"
	"github.com/wricardo/citygrid/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil, in which case /ws is
// not served.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("", s.handleIndex).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Players
	api.HandleFunc("/players", s.handleIssuePlayerID).Methods("POST")
	api.HandleFunc("/players/{id}/checkin", s.handleCheckIn).Methods("POST")

	// Games
	api.HandleFunc("/games", s.handleCreateGame).Methods("POST")
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/lobbies", s.handleListLobbies).Methods("GET")
	api.HandleFunc("/games/{id}", s.handleGetGame).Methods("GET")
	api.HandleFunc("/games/{id}/join", s.handleJoinGame).Methods("POST")
	api.HandleFunc("/games/{id}/inputs", s.handleSubmitInput).Methods("POST")
	api.HandleFunc("/games/{id}/players/{player}", s.handleRemovePlayer).Methods("DELETE")

	// Boards
	api.HandleFunc("/boards", s.handleListBoards).Methods("GET")

	// WebSocket
	if s.hub != nil {
		s.router.HandleFunc("/ws", s.handleWebSocket)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logger() *zerolog.Logger {
	logger := log.With().Str("service", "api").Logger()
	return &logger
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
	// Rule is the index of the rule that rejected an input
	Rule *int `json:"rule,omitempty"`
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: status})
}

// respondServiceError maps a service error onto a status code
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error(), Code: status}

	var violation *rules.Violation
	if errors.As(err, &violation) {
		rule := violation.Rule
		resp.Rule = &rule
	}

	if status >= http.StatusInternalServerError {
		s.logger().Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	respondJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, controller.ErrGameNotFound),
		errors.Is(err, controller.ErrPlayerNotInGame),
		errors.Is(err, engine.ErrPlayerNotFound),
		errors.Is(err, config.ErrBoardNotFound):
		return http.StatusNotFound
	case errors.Is(err, controller.ErrUnknownPlayer):
		return http.StatusUnauthorized
	case errors.Is(err, controller.ErrInputRejected),
		errors.Is(err, controller.ErrNothingToUndo),
		errors.Is(err, controller.ErrReplayFailed),
		errors.Is(err, controller.ErrNegativeMoves),
		errors.Is(err, controller.ErrAlreadyInGame),
		errors.Is(err, controller.ErrNoOrchestrator),
		errors.Is(err, controller.ErrNotEnoughPlayers),
		errors.Is(err, engine.ErrGameFull),
		errors.Is(err, engine.ErrRoleTaken),
		errors.Is(err, engine.ErrGameAlreadyStarted),
		errors.Is(err, engine.ErrModifierCap),
		errors.Is(err, engine.ErrModifierNotFound),
		errors.Is(err, engine.ErrRestrictionMismatch):
		return http.StatusConflict
	case errors.Is(err, controller.ErrMissingPayload),
		errors.Is(err, controller.ErrUnknownInput),
		errors.Is(err, controller.ErrInvalidGameConfig),
		errors.Is(err, config.ErrInvalidBoard),
		errors.Is(err, engine.ErrInvalidBoard):
		return http.StatusBadRequest
	case errors.Is(err, controller.ErrIDExhausted):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func parseID(r *http.Request, name string) (int32, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return int32(id), nil
}

func decode(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name": "citygrid",
		"endpoints": []string{
			"POST /api/players",
			"POST /api/players/{id}/checkin",
			"POST /api/games",
			"GET /api/games",
			"GET /api/lobbies",
			"GET /api/games/{id}",
			"POST /api/games/{id}/join",
			"POST /api/games/{id}/inputs",
			"DELETE /api/games/{id}/players/{player}",
			"GET /api/boards",
			"GET /api/health",
			"GET /ws?game={id}",
		},
	})
}

// Player Handlers

func (s *Server) handleIssuePlayerID(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.IssuePlayerID(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.service.CheckIn(r.Context(), engine.PlayerID(id)); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"player_id": id, "status": "ok"})
}

// Game Handlers

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req service.CreateGameRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.service.CreateGame(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, state)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.service.ListGames(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(games),
		"games": games,
	})
}

func (s *Server) handleListLobbies(w http.ResponseWriter, r *http.Request) {
	lobbies, err := s.service.ListLobbies(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(lobbies),
		"lobbies": lobbies,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.service.GetGame(r.Context(), engine.GameID(id))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req service.JoinGameRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.service.JoinGame(r.Context(), engine.GameID(id), req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleSubmitInput(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var input engine.PlayerInput
	if err := decode(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	input.GameID = engine.GameID(id)

	state, err := s.service.SubmitInput(r.Context(), input)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.logger().Debug().Int32("game", id).Int32("player", int32(input.PlayerID)).
		Str("input", string(input.InputType)).Int("pending", len(state.Actions)).Msg("input accepted")
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	playerID, err := parseID(r, "player")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.service.RemovePlayer(r.Context(), engine.GameID(gameID), engine.PlayerID(playerID)); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Player %d removed from game %d", playerID, gameID),
	})
}

// Board Handlers

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := s.service.ListBoards(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, boards)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("game")
	if raw == "" {
		http.Error(w, "game parameter required", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}

	state, err := s.service.GetGame(r.Context(), engine.GameID(id))
	if err != nil {
		http.Error(w, "Invalid game", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, engine.GameID(id), state, s.service)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

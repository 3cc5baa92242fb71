// Package api provides the HTTP REST API for citygrid.
//
// Every handler is a thin mapping from a request onto service.GameService;
// the service owns locking and broadcasting.
//
// Endpoints:
//
// Players:
//   - POST /api/players - Issue a player id
//   - POST /api/players/{id}/checkin - Keep a player id alive
//
// Games:
//   - POST /api/games - Create a lobby ({"name", "host_id", "host_name", "board"})
//   - GET /api/games - List every game
//   - GET /api/lobbies - List games that can still be joined
//   - GET /api/games/{id} - Get the projected state of a game
//   - POST /api/games/{id}/join - Join a lobby ({"player_id", "name"})
//   - POST /api/games/{id}/inputs - Submit a player input
//   - DELETE /api/games/{id}/players/{player} - Remove a player
//
// Boards and health:
//   - GET /api/boards - List available boards
//   - GET /api/health - Health check
//
// WebSocket:
//   - GET /ws?game={id} - Subscribe to a game's state updates
//
// Inputs are engine.PlayerInput documents. The game id in the path wins
// over any game_id in the body:
//
//	{"input_type": "movement", "player_id": 1234, "related_node_id": 2}
//	{"input_type": "modify_district", "player_id": 99, "district_modifier": {"district": "centre", "modifier": "toll"}}
//	{"input_type": "next_turn", "player_id": 1234}
//
// Error Handling:
//
// Errors are returned as JSON with the HTTP status code repeated in the
// body. Inputs rejected by a rule also carry the rule's index:
//
//	{
//	  "error": "input rejected: It's not the current players turn",
//	  "code": 409,
//	  "rule": 1
//	}
package api

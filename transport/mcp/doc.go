// Package mcp exposes citygrid to agent clients over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool is one call to the REST API, so
// agents go through the same service lock and broadcasts as browsers.
//
// MCP Tools:
//   - issue_player_id: Get a player id
//   - check_in: Keep a player id alive
//   - create_game: Create a lobby as orchestrator
//   - join_game: Join a lobby
//   - list_lobbies: List joinable games
//   - get_game: Get a game's projected state, staged actions included
//   - submit_input: Submit any player input
//   - list_boards: List available boards
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST /mcp on the main server, handled with HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp

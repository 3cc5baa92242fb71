package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/citygrid/game/config"
	"github.com/wricardo/citygrid/game/engine"
	"github.com/wricardo/citygrid/game/graph"
	"github.com/wricardo/citygrid/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

const instructions = `citygrid - MCP Interface

This is a thin client that proxies all requests to the REST API server.

HOW TO PLAY:
1. issue_player_id once and keep the id alive with check_in.
2. create_game (you become the orchestrator) or join_game on a lobby.
3. The orchestrator sends submit_input with input_type "start_game".
4. On your turn, stage movement / modify_district inputs, then next_turn to commit them.
   undo_action drops your last staged input.

Players move vehicles across the city graph. The orchestrator shapes the city
with district modifiers (access, priority, toll) and edge restrictions.`

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"citygrid",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(instructions),
	)

	c.registerTools()
}

func intProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

func stringProp(description string, enum ...string) map[string]interface{} {
	prop := map[string]interface{}{"type": "string", "description": description}
	if len(enum) > 0 {
		prop["enum"] = enum
	}
	return prop
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Players
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "issue_player_id",
		Description: "Get a new player id. It expires unless you check in regularly.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleIssuePlayerID)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "check_in",
		Description: "Keep a player id alive",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"player_id": intProp("Your player id"),
			},
			Required: []string{"player_id"},
		},
	}, c.handleCheckIn)

	// Games
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_game",
		Description: "Create a game lobby. The host becomes the orchestrator.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"host_id":   intProp("Your player id"),
				"host_name": stringProp("Your display name"),
				"name":      stringProp("Name of the game (optional)"),
				"board":     stringProp("Board id from list_boards (optional)"),
			},
			Required: []string{"host_id"},
		},
	}, c.handleCreateGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "join_game",
		Description: "Join a game lobby",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id":   intProp("Game to join"),
				"player_id": intProp("Your player id"),
				"name":      stringProp("Your display name"),
			},
			Required: []string{"game_id", "player_id"},
		},
	}, c.handleJoinGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_lobbies",
		Description: "List games that can still be joined",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLobbies)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_game",
		Description: "Get the state of a game including staged actions",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": intProp("Game id"),
			},
			Required: []string{"game_id"},
		},
	}, c.handleGetGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "submit_input",
		Description: "Submit a player input. Only the fields used by input_type are read.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id":   intProp("Game id"),
				"player_id": intProp("Your player id"),
				"input_type": stringProp("Kind of input",
					string(engine.Movement), string(engine.ChangeRole), string(engine.ModifyDistrict),
					string(engine.ModifyEdgeRestrictions), string(engine.NextTurn), string(engine.UndoAction),
					string(engine.SetPlayerBusBool), string(engine.StartGame), string(engine.LeaveGame)),
				"node_id":          intProp("movement: node to move to"),
				"role":             stringProp("change_role: role to take"),
				"value":            map[string]interface{}{"type": "boolean", "description": "set_player_bus_bool: ride the bus"},
				"district":         stringProp("modify_district: district id"),
				"modifier":         stringProp("modify_district: modifier kind", string(engine.Access), string(engine.Priority), string(engine.Toll)),
				"vehicle_type":     stringProp("modify_district: vehicle type the modifier applies to"),
				"node_one":         intProp("modify_edge_restrictions: edge origin"),
				"node_two":         intProp("modify_edge_restrictions: edge target"),
				"edge_restriction": stringProp("modify_edge_restrictions: restriction kind"),
				"delete":           map[string]interface{}{"type": "boolean", "description": "remove the modifier or restriction instead of adding it"},
			},
			Required: []string{"game_id", "player_id", "input_type"},
		},
	}, c.handleSubmitInput)

	// Boards
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_boards",
		Description: "List the boards a game can be created on",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListBoards)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiError is the error body returned by the REST API
type apiError struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
	Rule  *int   `json:"rule,omitempty"`
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp apiError
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			if errResp.Rule != nil {
				return fmt.Errorf("%s (rule %d)", errResp.Error, *errResp.Rule)
			}
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// intArg reads an integer argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}

func requireInt(args map[string]interface{}, key string) (int, error) {
	n, ok := intArg(args, key)
	if !ok {
		return 0, fmt.Errorf("%s is required and must be an integer", key)
	}
	return n, nil
}

// Tool handlers

func (c *Client) handleIssuePlayerID(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var info service.PlayerInfo
	if err := c.apiCall(ctx, "POST", "/api/players", nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Player id: %d\nCheck in at least every %d seconds to keep it.", info.PlayerID, info.TimeoutSeconds)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleCheckIn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	playerID, err := requireInt(request.GetArguments(), "player_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/players/%d/checkin", playerID), nil, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Player %d checked in", playerID)), nil
}

func (c *Client) handleCreateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	hostID, err := requireInt(args, "host_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hostName, _ := args["host_name"].(string)
	name, _ := args["name"].(string)
	board, _ := args["board"].(string)

	body := service.CreateGameRequest{
		Name:     name,
		HostID:   engine.PlayerID(hostID),
		HostName: hostName,
		Board:    board,
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "POST", "/api/games", body, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created game %d (%s) on board %s\n\n%s", state.ID, state.Name, state.BoardName, formatGameState(&state))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleJoinGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	gameID, err := requireInt(args, "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	playerID, err := requireInt(args, "player_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, _ := args["name"].(string)

	body := service.JoinGameRequest{PlayerID: engine.PlayerID(playerID), Name: name}

	var state engine.GameState
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/games/%d/join", gameID), body, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Joined game %d\n\n%s", state.ID, formatGameState(&state))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListLobbies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count   int                   `json:"count"`
		Lobbies []service.GameSummary `json:"lobbies"`
	}

	if err := c.apiCall(ctx, "GET", "/api/lobbies", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Open Lobbies (%d):\n\n", response.Count)
	for _, g := range response.Lobbies {
		fmt.Fprintf(&result, "- %d %s (Board: %s, Players: %d)\n", g.ID, g.Name, g.BoardName, g.PlayerCount)
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := requireInt(request.GetArguments(), "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/games/%d", gameID), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleSubmitInput(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	gameID, err := requireInt(args, "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	input, err := buildInput(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/games/%d/inputs", gameID), input, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Accepted %s\n\n%s", input.InputType, formatGameState(&state))
	return mcp.NewToolResultText(result), nil
}

// buildInput maps flat tool arguments onto a PlayerInput
func buildInput(args map[string]interface{}) (engine.PlayerInput, error) {
	playerID, err := requireInt(args, "player_id")
	if err != nil {
		return engine.PlayerInput{}, err
	}
	inputType, _ := args["input_type"].(string)
	if inputType == "" {
		return engine.PlayerInput{}, fmt.Errorf("input_type is required")
	}

	input := engine.PlayerInput{
		InputType: engine.InputType(inputType),
		PlayerID:  engine.PlayerID(playerID),
	}
	del, _ := args["delete"].(bool)

	switch input.InputType {
	case engine.Movement:
		if n, ok := intArg(args, "node_id"); ok {
			node := graph.NodeID(n)
			input.RelatedNodeID = &node
		}
	case engine.ChangeRole:
		if role, ok := args["role"].(string); ok {
			r := engine.InGameID(role)
			input.RelatedRole = &r
		}
	case engine.SetPlayerBusBool:
		if v, ok := args["value"].(bool); ok {
			input.RelatedBool = &v
		}
	case engine.ModifyDistrict:
		district, _ := args["district"].(string)
		modifier, _ := args["modifier"].(string)
		if district != "" || modifier != "" {
			vehicle, _ := args["vehicle_type"].(string)
			input.DistrictModifier = &engine.DistrictModifier{
				District:    graph.DistrictID(district),
				Modifier:    engine.DistrictModifierType(modifier),
				VehicleType: graph.RestrictionType(vehicle),
				Delete:      del,
			}
		}
	case engine.ModifyEdgeRestrictions:
		one, okOne := intArg(args, "node_one")
		two, okTwo := intArg(args, "node_two")
		if okOne && okTwo {
			restriction, _ := args["edge_restriction"].(string)
			input.EdgeModifier = &engine.EdgeRestriction{
				NodeOne:         graph.NodeID(one),
				NodeTwo:         graph.NodeID(two),
				EdgeRestriction: graph.RestrictionType(restriction),
				Delete:          del,
			}
		}
	}

	return input, nil
}

func (c *Client) handleListBoards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var boards []config.BoardInfo
	if err := c.apiCall(ctx, "GET", "/api/boards", nil, &boards); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Available Boards (%d):\n\n", len(boards))
	for _, b := range boards {
		fmt.Fprintf(&result, "- %s: %s (%d nodes, %d edges, %d objective cards)\n",
			b.BoardID, b.Name, b.Nodes, b.Edges, b.ObjectiveCards)
		if b.Description != "" {
			fmt.Fprintf(&result, "  %s\n", b.Description)
		}
	}

	return mcp.NewToolResultText(result.String()), nil
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	phase := "lobby"
	if !state.IsLobby {
		phase = fmt.Sprintf("running, turn: %s", state.CurrentPlayersTurn)
	}
	fmt.Fprintf(&result, "Game %d %q | Board: %s | %s\n\n", state.ID, state.Name, state.BoardName, phase)

	result.WriteString("Players:\n")
	for _, p := range state.Players {
		fmt.Fprintf(&result, "- %s %d (%s)", p.InGameID, p.UniqueID, p.Name)
		if p.PositionNodeID != nil {
			fmt.Fprintf(&result, " at node %d", *p.PositionNodeID)
		}
		if p.InGameID != engine.Orchestrator && !state.IsLobby {
			fmt.Fprintf(&result, ", moves: %d", p.RemainingMoves)
		}
		if p.IsBus {
			result.WriteString(", bus")
		}
		if card := p.ObjectiveCard; card != nil {
			status := "pick up"
			if card.Delivered {
				status = "delivered"
			} else if card.PickedPackageUp {
				status = "drop off"
			}
			fmt.Fprintf(&result, ", objective: %s at node %d", status, card.Target())
			if len(card.SpecialVehicleTypes) > 0 {
				kinds := make([]string, 0, len(card.SpecialVehicleTypes))
				for _, v := range card.SpecialVehicleTypes {
					kinds = append(kinds, string(v))
				}
				fmt.Fprintf(&result, " [%s]", strings.Join(kinds, ","))
			}
		}
		result.WriteString("\n")
	}

	if len(state.DistrictModifiers) > 0 {
		result.WriteString("\nDistrict modifiers:\n")
		for _, m := range state.DistrictModifiers {
			fmt.Fprintf(&result, "- %s %s", m.District, m.Modifier)
			if m.VehicleType != graph.NoRestriction {
				fmt.Fprintf(&result, " (%s)", m.VehicleType)
			}
			result.WriteString("\n")
		}
	}

	if len(state.Actions) > 0 {
		fmt.Fprintf(&result, "\nStaged actions (%d):\n", len(state.Actions))
		for _, a := range state.Actions {
			fmt.Fprintf(&result, "- %s by %d%s\n", a.InputType, a.PlayerID, describePayload(a))
		}
	}

	if state.Map != nil {
		result.WriteString("\n")
		result.WriteString(formatMap(state.Map))
	}

	return result.String()
}

func describePayload(a engine.PlayerInput) string {
	switch {
	case a.RelatedNodeID != nil:
		return fmt.Sprintf(" -> node %d", *a.RelatedNodeID)
	case a.DistrictModifier != nil:
		verb := "add"
		if a.DistrictModifier.Delete {
			verb = "remove"
		}
		return fmt.Sprintf(": %s %s on %s", verb, a.DistrictModifier.Modifier, a.DistrictModifier.District)
	}
	return ""
}

// formatMap lists every node with its outgoing edges
func formatMap(m *graph.Map) string {
	var result strings.Builder
	result.WriteString("Map:\n")
	for _, id := range m.NodeIDs() {
		node := m.Nodes[id]
		fmt.Fprintf(&result, "%d %s", id, node.Name)
		var tags []string
		if node.IsParkingSpot {
			tags = append(tags, "parking")
		}
		if node.IsConnectedToRail {
			tags = append(tags, "rail")
		}
		if len(tags) > 0 {
			fmt.Fprintf(&result, " [%s]", strings.Join(tags, ","))
		}
		result.WriteString(":")

		rels, _ := m.NeighboursOf(id)
		sorted := append([]graph.NeighbourRelationship(nil), rels...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].To < sorted[j].To })
		for _, rel := range sorted {
			fmt.Fprintf(&result, " ->%d(%s", rel.To, rel.Neighbourhood)
			if rel.Restriction != graph.NoRestriction {
				fmt.Fprintf(&result, ",%s", rel.Restriction)
			}
			result.WriteString(")")
		}
		result.WriteString("\n")
	}
	return result.String()
}

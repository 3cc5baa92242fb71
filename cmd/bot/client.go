package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wricardo/citygrid/game/engine"
	"github.com/wricardo/citygrid/game/service"
)

// APIError is a failed API call. Rule is set when a rule rejected an input.
type APIError struct {
	Status  int
	Message string
	Rule    *int
}

func (e *APIError) Error() string {
	if e.Rule != nil {
		return fmt.Sprintf("%d: %s (rule %d)", e.Status, e.Message, *e.Rule)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Client calls the citygrid REST API
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) IssuePlayerID(ctx context.Context) (engine.PlayerID, error) {
	var info service.PlayerInfo
	if err := c.do(ctx, "POST", "/api/players", nil, &info); err != nil {
		return 0, fmt.Errorf("issue player id: %w", err)
	}
	return info.PlayerID, nil
}

func (c *Client) CheckIn(ctx context.Context, id engine.PlayerID) error {
	return c.do(ctx, "POST", fmt.Sprintf("/api/players/%d/checkin", id), nil, nil)
}

func (c *Client) CreateGame(ctx context.Context, req service.CreateGameRequest) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, "POST", "/api/games", req, &state); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	return &state, nil
}

func (c *Client) JoinGame(ctx context.Context, gameID engine.GameID, req service.JoinGameRequest) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, "POST", fmt.Sprintf("/api/games/%d/join", gameID), req, &state); err != nil {
		return nil, fmt.Errorf("join game: %w", err)
	}
	return &state, nil
}

func (c *Client) GetGame(ctx context.Context, gameID engine.GameID) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, "GET", fmt.Sprintf("/api/games/%d", gameID), nil, &state); err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	return &state, nil
}

func (c *Client) Submit(ctx context.Context, gameID engine.GameID, input engine.PlayerInput) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, "POST", fmt.Sprintf("/api/games/%d/inputs", gameID), input, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
			Rule  *int   `json:"rule"`
		}
		if err := json.Unmarshal(data, &errResp); err != nil || errResp.Error == "" {
			errResp.Error = strings.TrimSpace(string(data))
		}
		return &APIError{Status: resp.StatusCode, Message: errResp.Error, Rule: errResp.Rule}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

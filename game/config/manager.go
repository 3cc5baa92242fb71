package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/citygrid/game/engine"
)

var (
	ErrBoardNotFound = errors.New("board not found")
	ErrInvalidBoard  = errors.New("invalid board")
)

// DefaultBoardName always resolves, falling back to the built-in board
const DefaultBoardName = "default"

var boardExtensions = []string{".yaml", ".yml", ".json"}

// BoardInfo summarizes a board for listings
type BoardInfo struct {
	Filename       string `json:"filename"`
	BoardID        string `json:"board_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Nodes          int    `json:"nodes"`
	Edges          int    `json:"edges"`
	ObjectiveCards int    `json:"objective_cards"`
}

// Manager handles board loading and caching
type Manager struct {
	boardDir     string
	defaultBoard *engine.Board
	boards       map[string]*engine.Board
	mu           sync.RWMutex
}

// NewManager creates a board manager. An empty dir serves only the
// built-in board.
func NewManager(boardDir string) (*Manager, error) {
	if boardDir != "" {
		if _, err := os.Stat(boardDir); os.IsNotExist(err) {
			return nil, fmt.Errorf("board directory does not exist: %s", boardDir)
		}
	}

	m := &Manager{
		boardDir: boardDir,
		boards:   make(map[string]*engine.Board),
	}
	m.loadDefaultBoard()
	return m, nil
}

// LoadBoard loads a board by id, with or without its file extension
func (m *Manager) LoadBoard(name string) (*engine.Board, error) {
	id := boardID(name)

	m.mu.RLock()
	if board, exists := m.boards[id]; exists {
		m.mu.RUnlock()
		return board, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if board, exists := m.boards[id]; exists {
		return board, nil
	}

	path, err := m.findBoardFile(name)
	if err != nil {
		if errors.Is(err, ErrBoardNotFound) && id == DefaultBoardName {
			board := engine.DefaultBoard()
			m.boards[id] = board
			return board, nil
		}
		return nil, err
	}

	board, err := engine.LoadBoard(path)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidBoard) {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBoard, filepath.Base(path), err)
		}
		return nil, fmt.Errorf("failed to load board %s: %w", filepath.Base(path), err)
	}

	m.boards[id] = board
	return board, nil
}

func (m *Manager) findBoardFile(name string) (string, error) {
	if m.boardDir == "" {
		return "", ErrBoardNotFound
	}

	candidates := []string{name}
	if !hasBoardExtension(name) {
		candidates = candidates[:0]
		for _, ext := range boardExtensions {
			candidates = append(candidates, name+ext)
		}
	}

	for _, candidate := range candidates {
		path := filepath.Join(m.boardDir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrBoardNotFound
}

// ListBoards returns information about all loadable boards, the built-in
// board included
func (m *Manager) ListBoards() ([]*BoardInfo, error) {
	var boards []*BoardInfo
	seen := make(map[string]bool)

	if m.boardDir != "" {
		entries, err := os.ReadDir(m.boardDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read board directory: %w", err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !hasBoardExtension(entry.Name()) {
				continue
			}
			id := boardID(entry.Name())
			if seen[id] {
				continue
			}

			board, err := m.LoadBoard(entry.Name())
			if err != nil {
				// Skip invalid boards
				continue
			}
			seen[id] = true
			boards = append(boards, newBoardInfo(entry.Name(), id, board))
		}
	}

	if !seen[DefaultBoardName] {
		boards = append(boards, newBoardInfo("", DefaultBoardName, engine.DefaultBoard()))
	}

	sort.Slice(boards, func(i, j int) bool { return boards[i].BoardID < boards[j].BoardID })
	return boards, nil
}

func newBoardInfo(filename, id string, board *engine.Board) *BoardInfo {
	return &BoardInfo{
		Filename:       filename,
		BoardID:        id,
		Name:           board.Name,
		Description:    board.Description,
		Nodes:          len(board.Nodes),
		Edges:          len(board.Edges),
		ObjectiveCards: len(board.ObjectiveCards),
	}
}

// GetDefault returns the default board
func (m *Manager) GetDefault() *engine.Board {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultBoard
}

// SetDefault sets the default board by id
func (m *Manager) SetDefault(name string) error {
	board, err := m.LoadBoard(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultBoard = board
	return nil
}

// Resolve returns the named board, or the default board for an empty name
func (m *Manager) Resolve(name string) (*engine.Board, error) {
	if name == "" {
		return m.GetDefault(), nil
	}
	return m.LoadBoard(name)
}

// RefreshCache drops every cached board and reloads the default
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.boards = make(map[string]*engine.Board)
	m.mu.Unlock()

	m.loadDefaultBoard()
}

func (m *Manager) loadDefaultBoard() {
	board, err := m.LoadBoard(DefaultBoardName)
	if err != nil {
		board = engine.DefaultBoard()
	}

	m.mu.Lock()
	m.defaultBoard = board
	m.mu.Unlock()
}

// SaveBoard validates the board and writes it as YAML to the board dir
func (m *Manager) SaveBoard(name string, board *engine.Board) error {
	if m.boardDir == "" {
		return fmt.Errorf("no board directory configured")
	}
	if err := engine.ValidateBoard(board); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}

	data, err := yaml.Marshal(board)
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}

	id := boardID(name)
	path := filepath.Join(m.boardDir, id+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write board file: %w", err)
	}

	m.mu.Lock()
	m.boards[id] = board
	m.mu.Unlock()

	return nil
}

func hasBoardExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, known := range boardExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

func boardID(name string) string {
	if hasBoardExtension(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

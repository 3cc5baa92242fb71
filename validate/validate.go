// Package validate checks board files before they are served. It runs the
// structural checks of engine.ParseBoard and adds connectivity analysis:
//   - every node is reachable from the start node
//   - every objective card can be picked up and delivered
//   - no node is a dead end
//   - no edge is declared twice
package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/citygrid/game/engine"
	"github.com/wricardo/citygrid/game/graph"
)

// Result captures the outcome of validating a single file. Warnings never
// make a board invalid.
type Result struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// File loads and validates a single board file
func File(path string) Result {
	result := Result{
		File:  filepath.Base(path),
		Valid: true,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	board, err := engine.ParseBoard(data, filepath.Ext(path))
	if err != nil {
		result.fail("%v", err)
		return result
	}

	Board(board, &result)
	return result
}

// Board adds the checks engine.ValidateBoard does not perform to result.
// The board must already be structurally valid.
func Board(board *engine.Board, result *Result) {
	seen := make(map[[2]graph.NodeID]bool)
	for _, e := range board.Edges {
		key := [2]graph.NodeID{e.From, e.To}
		if seen[key] {
			result.fail("Edge %d->%d is declared more than once", e.From, e.To)
		}
		seen[key] = true
	}

	m, err := board.BuildMap()
	if err != nil {
		result.fail("%v", err)
		return
	}

	connectivity(board, m, result)
}

func connectivity(board *engine.Board, m *graph.Map, result *Result) {
	fromStart := m.Reachable(board.StartNodeID)

	var unreachable []string
	for _, id := range m.NodeIDs() {
		if !fromStart[id] {
			unreachable = append(unreachable, fmt.Sprint(id))
		}
		if _, ok := m.NeighboursOf(id); !ok {
			result.warn("Node %d has no outgoing edges", id)
		}
	}
	if len(unreachable) > 0 {
		result.warn("%d/%d nodes unreachable from start node %d: %s",
			len(unreachable), len(m.Nodes), board.StartNodeID, strings.Join(unreachable, ", "))
	}

	for i, card := range board.ObjectiveCards {
		if card.PickUpNodeID == card.DropOffNodeID {
			result.warn("Objective card %d picks up and drops off at node %d", i+1, card.PickUpNodeID)
		}
		if !fromStart[card.PickUpNodeID] {
			result.fail("Objective card %d: pick up node %d is unreachable from start", i+1, card.PickUpNodeID)
			continue
		}
		if !m.Reachable(card.PickUpNodeID)[card.DropOffNodeID] {
			result.fail("Objective card %d: drop off node %d is unreachable from pick up node %d", i+1, card.DropOffNodeID, card.PickUpNodeID)
		}
	}
}

// Dir validates every board file in dir, sorted by file name
func Dir(dir string) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read board directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, File(file))
	}
	return results, nil
}

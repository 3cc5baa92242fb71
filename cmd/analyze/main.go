// Command analyze prints quick, human-readable statistics about board
// files: node and edge counts, restriction and district breakdowns, hop
// distances from the start node and nodes the start cannot reach.
//
// With no arguments it analyzes the built-in board and every board in
// ./boards.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/citygrid/game/engine"
	"github.com/wricardo/citygrid/game/graph"
)

// Analysis is the summary of one board
type Analysis struct {
	Name           string
	Nodes          int
	Edges          int
	ParkingSpots   int
	RailNodes      int
	Modifiable     int
	ObjectiveCards int
	Districts      map[graph.DistrictID]int
	Restrictions   map[graph.RestrictionType]int
	// Distances holds hop counts from the start node, ignoring restrictions
	Distances   map[graph.NodeID]int
	Unreachable []graph.NodeID
}

func main() {
	paths := os.Args[1:]
	if len(paths) == 0 {
		fmt.Printf("\n=== Analyzing built-in board ===\n")
		printAnalysis(os.Stdout, analyzeBoard(engine.DefaultBoard()))

		for _, ext := range []string{"*.yaml", "*.yml", "*.json"} {
			matches, _ := filepath.Glob(filepath.Join("boards", ext))
			paths = append(paths, matches...)
		}
		sort.Strings(paths)
	}

	for _, path := range paths {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(path))
		board, err := engine.LoadBoard(path)
		if err != nil {
			fmt.Printf("Error loading board: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, analyzeBoard(board))
	}
}

func analyzeBoard(board *engine.Board) Analysis {
	a := Analysis{
		Name:           board.Name,
		Nodes:          len(board.Nodes),
		Edges:          len(board.Edges),
		ObjectiveCards: len(board.ObjectiveCards),
		Districts:      make(map[graph.DistrictID]int),
		Restrictions:   make(map[graph.RestrictionType]int),
	}

	for _, n := range board.Nodes {
		if n.IsParkingSpot {
			a.ParkingSpots++
		}
		if n.IsConnectedToRail {
			a.RailNodes++
		}
	}
	for _, e := range board.Edges {
		a.Districts[e.Neighbourhood]++
		if e.Restriction != graph.NoRestriction {
			a.Restrictions[e.Restriction]++
		}
		if e.IsModifiable {
			a.Modifiable++
		}
	}

	m, err := board.BuildMap()
	if err != nil {
		return a
	}
	a.Distances = hopDistances(m, board.StartNodeID)
	for _, id := range m.NodeIDs() {
		if _, ok := a.Distances[id]; !ok {
			a.Unreachable = append(a.Unreachable, id)
		}
	}
	return a
}

// hopDistances runs a breadth-first search from start
func hopDistances(m *graph.Map, start graph.NodeID) map[graph.NodeID]int {
	dist := map[graph.NodeID]int{}
	if _, err := m.NodeByID(start); err != nil {
		return dist
	}
	dist[start] = 0
	queue := []graph.NodeID{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		rels, _ := m.NeighboursOf(current)
		for _, rel := range rels {
			if _, seen := dist[rel.To]; !seen {
				dist[rel.To] = dist[current] + 1
				queue = append(queue, rel.To)
			}
		}
	}
	return dist
}

func printAnalysis(w io.Writer, a Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Nodes: %d (parking: %d, rail: %d)\n", a.Nodes, a.ParkingSpots, a.RailNodes)
	fmt.Fprintf(w, "Edges: %d (modifiable: %d)\n", a.Edges, a.Modifiable)
	fmt.Fprintf(w, "Objective Cards: %d\n", a.ObjectiveCards)

	districts := make([]string, 0, len(a.Districts))
	for d, count := range a.Districts {
		districts = append(districts, fmt.Sprintf("%s=%d", d, count))
	}
	sort.Strings(districts)
	fmt.Fprintf(w, "Districts: %s\n", strings.Join(districts, " "))

	if len(a.Restrictions) > 0 {
		restrictions := make([]string, 0, len(a.Restrictions))
		for r, count := range a.Restrictions {
			restrictions = append(restrictions, fmt.Sprintf("%s=%d", r, count))
		}
		sort.Strings(restrictions)
		fmt.Fprintf(w, "Restricted Edges: %s\n", strings.Join(restrictions, " "))
	}

	farthest := 0
	for _, d := range a.Distances {
		if d > farthest {
			farthest = d
		}
	}
	fmt.Fprintf(w, "Farthest node from start: %d hops\n", farthest)

	if len(a.Unreachable) > 0 {
		ids := make([]string, 0, len(a.Unreachable))
		for _, id := range a.Unreachable {
			ids = append(ids, fmt.Sprint(id))
		}
		fmt.Fprintf(w, "⚠️  WARNING: %d nodes are unreachable from the start node: %s\n", len(a.Unreachable), strings.Join(ids, ", "))
	} else {
		fmt.Fprintf(w, "✅ All nodes are reachable from the start node\n")
	}
}

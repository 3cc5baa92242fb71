package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/citygrid/game/graph"
)

// Board is the static setup a game is created from
type Board struct {
	Name           string                        `json:"name" yaml:"name"`
	Description    string                        `json:"description" yaml:"description"`
	StartNodeID    graph.NodeID                  `json:"start_node_id" yaml:"start_node_id"`
	Nodes          []graph.Node                  `json:"nodes" yaml:"nodes"`
	Edges          []graph.NeighbourRelationship `json:"edges" yaml:"edges"`
	ObjectiveCards []ObjectiveCard               `json:"objective_cards" yaml:"objective_cards"`
}

// BuildMap constructs the board's graph
func (b *Board) BuildMap() (*graph.Map, error) {
	m, err := graph.New(b.Nodes, b.Edges)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}
	return m, nil
}

// ValidateBoard checks a board for structural correctness
func ValidateBoard(b *Board) error {
	if b == nil {
		return fmt.Errorf("%w: board cannot be nil", ErrInvalidBoard)
	}
	if b.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBoard)
	}
	if len(b.Nodes) < 2 {
		return fmt.Errorf("%w: at least 2 nodes are required, got %d", ErrInvalidBoard, len(b.Nodes))
	}

	m, err := b.BuildMap()
	if err != nil {
		return err
	}

	if _, err := m.NodeByID(b.StartNodeID); err != nil {
		return fmt.Errorf("%w: start node: %v", ErrInvalidBoard, err)
	}

	for i, e := range b.Edges {
		if !e.Restriction.IsKnown() {
			return fmt.Errorf("%w: edge %d (%d->%d) has unknown restriction %q", ErrInvalidBoard, i+1, e.From, e.To, e.Restriction)
		}
		if e.From == e.To {
			return fmt.Errorf("%w: edge %d loops on node %d", ErrInvalidBoard, i+1, e.From)
		}
	}

	for i, card := range b.ObjectiveCards {
		if _, err := m.NodeByID(card.PickUpNodeID); err != nil {
			return fmt.Errorf("%w: objective card %d pick up: %v", ErrInvalidBoard, i+1, err)
		}
		if _, err := m.NodeByID(card.DropOffNodeID); err != nil {
			return fmt.Errorf("%w: objective card %d drop off: %v", ErrInvalidBoard, i+1, err)
		}
		for _, v := range card.SpecialVehicleTypes {
			if v == graph.NoRestriction || !v.IsKnown() {
				return fmt.Errorf("%w: objective card %d has unknown vehicle type %q", ErrInvalidBoard, i+1, v)
			}
		}
	}

	return nil
}

// ParseBoard decodes a board from YAML or JSON depending on ext (".yaml",
// ".yml" or ".json") and validates it
func ParseBoard(data []byte, ext string) (*Board, error) {
	var board Board
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &board); err != nil {
			return nil, fmt.Errorf("failed to parse board yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &board); err != nil {
			return nil, fmt.Errorf("failed to parse board json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported board format %q", ext)
	}

	if err := ValidateBoard(&board); err != nil {
		return nil, err
	}
	return &board, nil
}

// LoadBoard loads a board file
func LoadBoard(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBoard(data, filepath.Ext(path))
}

// DefaultBoard returns the built-in board used when none is configured
func DefaultBoard() *Board {
	both := func(a, b graph.NodeID, district graph.DistrictID, restriction graph.RestrictionType, modifiable, rail bool) []graph.NeighbourRelationship {
		return []graph.NeighbourRelationship{
			{From: a, To: b, Neighbourhood: district, Restriction: restriction, IsModifiable: modifiable, IsConnectedThroughRail: rail},
			{From: b, To: a, Neighbourhood: district, Restriction: restriction, IsModifiable: modifiable, IsConnectedThroughRail: rail},
		}
	}

	var edges []graph.NeighbourRelationship
	edges = append(edges, both(1, 2, "centre", graph.NoRestriction, true, false)...)
	edges = append(edges, both(2, 3, "centre", graph.NoRestriction, true, false)...)
	edges = append(edges, both(3, 4, "harbour", graph.NoRestriction, false, true)...)
	edges = append(edges,
		graph.NeighbourRelationship{From: 2, To: 5, Neighbourhood: "oldtown", Restriction: graph.OneWay},
		graph.NeighbourRelationship{From: 5, To: 2, Neighbourhood: "oldtown"},
	)
	edges = append(edges, both(5, 6, "oldtown", graph.Emergency, true, false)...)
	edges = append(edges, both(1, 7, "centre", graph.ParkAndRide, true, false)...)
	edges = append(edges, both(7, 8, "campus", graph.ParkAndRide, true, false)...)
	edges = append(edges, both(8, 6, "campus", graph.NoRestriction, true, false)...)
	edges = append(edges, both(4, 6, "harbour", graph.NoRestriction, true, false)...)

	return &Board{
		Name:        "default",
		Description: "Small built-in city with a rail link, an old town one-way and a park & ride line",
		StartNodeID: 1,
		Nodes: []graph.Node{
			{ID: 1, Name: "Depot", IsParkingSpot: true},
			{ID: 2, Name: "Market"},
			{ID: 3, Name: "Central Station", IsConnectedToRail: true},
			{ID: 4, Name: "Harbour Station", IsConnectedToRail: true},
			{ID: 5, Name: "Old Town"},
			{ID: 6, Name: "Hospital"},
			{ID: 7, Name: "Park & Ride", IsParkingSpot: true},
			{ID: 8, Name: "University"},
		},
		Edges: edges,
		ObjectiveCards: []ObjectiveCard{
			{PickUpNodeID: 5, DropOffNodeID: 8, SpecialVehicleTypes: []graph.RestrictionType{graph.Taxi}},
			{PickUpNodeID: 6, DropOffNodeID: 4, SpecialVehicleTypes: []graph.RestrictionType{graph.Emergency}},
			{PickUpNodeID: 8, DropOffNodeID: 2, SpecialVehicleTypes: []graph.RestrictionType{graph.Tram}},
			{PickUpNodeID: 4, DropOffNodeID: 5, SpecialVehicleTypes: []graph.RestrictionType{graph.Destination}},
		},
	}
}

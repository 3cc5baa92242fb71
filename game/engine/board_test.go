package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlBoard = `
name: ring
description: three stops in a ring
start_node_id: 1
nodes:
  - {id: 1, name: A, is_parking_spot: true}
  - {id: 2, name: B}
  - {id: 3, name: C, is_connected_to_rail: true}
edges:
  - {from: 1, to: 2, neighbourhood: north, is_modifiable: true}
  - {from: 2, to: 3, neighbourhood: north, restriction: one_way}
  - {from: 3, to: 1, neighbourhood: south, restriction: taxi}
objective_cards:
  - {pick_up_node_id: 2, drop_off_node_id: 3, special_vehicle_types: [taxi]}
`

func TestValidateBoard_Default(t *testing.T) {
	require.NoError(t, ValidateBoard(DefaultBoard()))
}

func TestValidateBoard_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *Board)
	}{
		{"missing name", func(b *Board) { b.Name = "" }},
		{"too few nodes", func(b *Board) { b.Nodes = b.Nodes[:1]; b.Edges = nil; b.ObjectiveCards = nil }},
		{"unknown start", func(b *Board) { b.StartNodeID = 99 }},
		{"edge to unknown node", func(b *Board) { b.Edges[0].To = 99 }},
		{"unknown restriction", func(b *Board) { b.Edges[0].Restriction = "hovercraft" }},
		{"self loop", func(b *Board) { b.Edges[0].To = b.Edges[0].From }},
		{"card with unknown node", func(b *Board) { b.ObjectiveCards[0].DropOffNodeID = 99 }},
		{"card with empty vehicle", func(b *Board) {
			b.ObjectiveCards[0].SpecialVehicleTypes = append(b.ObjectiveCards[0].SpecialVehicleTypes, "")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := DefaultBoard()
			tt.mutate(b)
			assert.ErrorIs(t, ValidateBoard(b), ErrInvalidBoard)
		})
	}

	assert.ErrorIs(t, ValidateBoard(nil), ErrInvalidBoard)
}

func TestParseBoard(t *testing.T) {
	board, err := ParseBoard([]byte(yamlBoard), ".yaml")
	require.NoError(t, err)
	assert.Equal(t, "ring", board.Name)
	assert.Len(t, board.Edges, 3)
	assert.True(t, board.Nodes[2].IsConnectedToRail)

	_, err = ParseBoard([]byte(yamlBoard), ".toml")
	assert.Error(t, err)

	_, err = ParseBoard([]byte("{"), ".json")
	assert.Error(t, err)
}

func TestLoadBoard(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ring.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlBoard), 0644))

	board, err := LoadBoard(path)
	require.NoError(t, err)
	assert.Equal(t, "three stops in a ring", board.Description)

	_, err = LoadBoard(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

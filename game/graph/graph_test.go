package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestMap(t *testing.T) *Map {
	t.Helper()
	nodes := []Node{
		{ID: 1, Name: "depot", IsParkingSpot: true},
		{ID: 2, Name: "market"},
		{ID: 3, Name: "station", IsConnectedToRail: true},
		{ID: 4, Name: "harbour", IsConnectedToRail: true},
	}
	edges := []NeighbourRelationship{
		{From: 1, To: 2, Neighbourhood: "centre", IsModifiable: true},
		{From: 2, To: 1, Neighbourhood: "centre", IsModifiable: true},
		{From: 2, To: 3, Neighbourhood: "east", Restriction: OneWay},
		{From: 3, To: 4, Neighbourhood: "east", IsConnectedThroughRail: true},
		{From: 4, To: 3, Neighbourhood: "harbourside", IsConnectedThroughRail: true},
	}
	m, err := New(nodes, edges)
	require.NoError(t, err)
	return m
}

func TestNew_RejectsBadInput(t *testing.T) {
	_, err := New([]Node{{ID: 1}, {ID: 1}}, nil)
	assert.ErrorIs(t, err, ErrDuplicateNode)

	_, err = New([]Node{{ID: 1}}, []NeighbourRelationship{{From: 1, To: 9}})
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestMap_Queries(t *testing.T) {
	m := createTestMap(t)

	tests := []struct {
		name     string
		from, to NodeID
		want     bool
	}{
		{"forward edge", 1, 2, true},
		{"reverse edge", 2, 1, true},
		{"one way forward", 2, 3, true},
		{"one way missing reverse", 3, 2, false},
		{"not adjacent", 1, 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.AreNeighbours(tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := m.AreNeighbours(1, 42)
	assert.ErrorIs(t, err, ErrNodeNotFound)

	rels, ok := m.NeighboursOf(2)
	require.True(t, ok)
	assert.Len(t, rels, 2)

	_, ok = m.NeighboursOf(42)
	assert.False(t, ok)

	assert.Equal(t, []DistrictID{"east"}, m.DistrictsOf(3))
	assert.True(t, m.NodeInDistrict(4, "harbourside"))
	assert.False(t, m.NodeInDistrict(4, "centre"))
	assert.Equal(t, []NodeID{1, 2, 3, 4}, m.NodeIDs())
	assert.Equal(t, 5, m.EdgeCount())
}

func TestMap_SetRestrictionAndClone(t *testing.T) {
	m := createTestMap(t)
	clone := m.Clone()

	require.NoError(t, m.SetRestriction(1, 2, ParkAndRide))
	rel, ok := m.Relationship(1, 2)
	require.True(t, ok)
	assert.Equal(t, ParkAndRide, rel.Restriction)

	cloned, ok := clone.Relationship(1, 2)
	require.True(t, ok)
	assert.Equal(t, NoRestriction, cloned.Restriction, "clone must not share relationship storage")

	assert.ErrorIs(t, m.SetRestriction(1, 4, Taxi), ErrRelationshipNotFound)
}

func TestMap_Reachable(t *testing.T) {
	m := createTestMap(t)
	reach := m.Reachable(1)
	assert.Len(t, reach, 4)

	reach = m.Reachable(3)
	assert.True(t, reach[4])
	assert.False(t, reach[1])

	assert.Empty(t, m.Reachable(99))
}

func TestRestrictionType_IsKnown(t *testing.T) {
	assert.True(t, NoRestriction.IsKnown())
	assert.True(t, Tram.IsKnown())
	assert.False(t, RestrictionType("hovercraft").IsKnown())
}

package graph

import (
	"fmt"
	"sort"
)

// Map is a directed movement graph
type Map struct {
	Nodes      map[NodeID]Node                    `json:"nodes"`
	Neighbours map[NodeID][]NeighbourRelationship `json:"neighbours"`
}

// New builds a map from nodes and relationships. Relationships keep their
// input order per origin node.
func New(nodes []Node, edges []NeighbourRelationship) (*Map, error) {
	m := &Map{
		Nodes:      make(map[NodeID]Node, len(nodes)),
		Neighbours: make(map[NodeID][]NeighbourRelationship, len(nodes)),
	}

	for _, n := range nodes {
		if _, exists := m.Nodes[n.ID]; exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateNode, n.ID)
		}
		m.Nodes[n.ID] = n
	}

	for _, e := range edges {
		if _, ok := m.Nodes[e.From]; !ok {
			return nil, fmt.Errorf("edge %d->%d: %w: %d", e.From, e.To, ErrNodeNotFound, e.From)
		}
		if _, ok := m.Nodes[e.To]; !ok {
			return nil, fmt.Errorf("edge %d->%d: %w: %d", e.From, e.To, ErrNodeNotFound, e.To)
		}
		m.Neighbours[e.From] = append(m.Neighbours[e.From], e)
	}

	return m, nil
}

// NodeByID returns the node with the given id
func (m *Map) NodeByID(id NodeID) (Node, error) {
	n, ok := m.Nodes[id]
	if !ok {
		return Node{}, fmt.Errorf("%w: there is no node with id %d", ErrNodeNotFound, id)
	}
	return n, nil
}

// NeighboursOf returns the relationships leaving the node. The boolean is
// false when the node has no outgoing relationships or does not exist.
func (m *Map) NeighboursOf(id NodeID) ([]NeighbourRelationship, bool) {
	rels, ok := m.Neighbours[id]
	if !ok || len(rels) == 0 {
		return nil, false
	}
	return rels, true
}

// Relationship returns the relationship from -> to
func (m *Map) Relationship(from, to NodeID) (NeighbourRelationship, bool) {
	for _, rel := range m.Neighbours[from] {
		if rel.To == to {
			return rel, true
		}
	}
	return NeighbourRelationship{}, false
}

// AreNeighbours reports whether there is a relationship from -> to. Both
// nodes must exist.
func (m *Map) AreNeighbours(from, to NodeID) (bool, error) {
	if _, err := m.NodeByID(from); err != nil {
		return false, err
	}
	if _, err := m.NodeByID(to); err != nil {
		return false, err
	}
	_, ok := m.Relationship(from, to)
	return ok, nil
}

// SetRestriction replaces the restriction on from -> to
func (m *Map) SetRestriction(from, to NodeID, restriction RestrictionType) error {
	rels := m.Neighbours[from]
	for i := range rels {
		if rels[i].To == to {
			rels[i].Restriction = restriction
			return nil
		}
	}
	return fmt.Errorf("%w: %d->%d", ErrRelationshipNotFound, from, to)
}

// DistrictsOf returns the distinct districts of the relationships leaving
// the node, in first-seen order.
func (m *Map) DistrictsOf(id NodeID) []DistrictID {
	var districts []DistrictID
	seen := make(map[DistrictID]bool)
	for _, rel := range m.Neighbours[id] {
		if !seen[rel.Neighbourhood] {
			seen[rel.Neighbourhood] = true
			districts = append(districts, rel.Neighbourhood)
		}
	}
	return districts
}

// NodeInDistrict reports whether any relationship leaving the node lies in
// the district
func (m *Map) NodeInDistrict(id NodeID, district DistrictID) bool {
	for _, rel := range m.Neighbours[id] {
		if rel.Neighbourhood == district {
			return true
		}
	}
	return false
}

// NodeIDs returns all node ids in ascending order
func (m *Map) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(m.Nodes))
	for id := range m.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// EdgeCount returns the number of directed relationships
func (m *Map) EdgeCount() int {
	count := 0
	for _, rels := range m.Neighbours {
		count += len(rels)
	}
	return count
}

// Reachable returns the set of nodes reachable from start following
// relationships in their direction, start included.
func (m *Map) Reachable(start NodeID) map[NodeID]bool {
	visited := map[NodeID]bool{}
	if _, ok := m.Nodes[start]; !ok {
		return visited
	}
	queue := []NodeID{start}
	visited[start] = true
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, rel := range m.Neighbours[current] {
			if !visited[rel.To] {
				visited[rel.To] = true
				queue = append(queue, rel.To)
			}
		}
	}
	return visited
}

// Clone returns a deep copy of the map
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	c := &Map{
		Nodes:      make(map[NodeID]Node, len(m.Nodes)),
		Neighbours: make(map[NodeID][]NeighbourRelationship, len(m.Neighbours)),
	}
	for id, n := range m.Nodes {
		c.Nodes[id] = n
	}
	for id, rels := range m.Neighbours {
		c.Neighbours[id] = append([]NeighbourRelationship(nil), rels...)
	}
	return c
}

package graph

import "errors"

var (
	ErrNodeNotFound         = errors.New("node not found")
	ErrRelationshipNotFound = errors.New("neighbour relationship not found")
	ErrDuplicateNode        = errors.New("duplicate node")
)

// NodeID identifies a node on the map
type NodeID int

// DistrictID identifies a neighbourhood of the map
type DistrictID string

// RestrictionType is the kind of restriction an edge or district carries.
// The empty value means no restriction.
type RestrictionType string

const (
	NoRestriction RestrictionType = ""
	OneWay        RestrictionType = "one_way"
	ParkAndRide   RestrictionType = "park_and_ride"
	Destination   RestrictionType = "destination"
	Emergency     RestrictionType = "emergency"
	Taxi          RestrictionType = "taxi"
	Tram          RestrictionType = "tram"
)

// RestrictionTypes lists every known non-empty restriction
var RestrictionTypes = []RestrictionType{OneWay, ParkAndRide, Destination, Emergency, Taxi, Tram}

// IsKnown reports whether r is NoRestriction or one of RestrictionTypes
func (r RestrictionType) IsKnown() bool {
	if r == NoRestriction {
		return true
	}
	for _, known := range RestrictionTypes {
		if r == known {
			return true
		}
	}
	return false
}

// Node is a single location on the map
type Node struct {
	ID                NodeID `json:"id" yaml:"id"`
	Name              string `json:"name,omitempty" yaml:"name,omitempty"`
	IsParkingSpot     bool   `json:"is_parking_spot" yaml:"is_parking_spot"`
	IsConnectedToRail bool   `json:"is_connected_to_rail" yaml:"is_connected_to_rail"`
}

// NeighbourRelationship is a directed edge between two nodes
type NeighbourRelationship struct {
	From                   NodeID          `json:"from" yaml:"from"`
	To                     NodeID          `json:"to" yaml:"to"`
	Restriction            RestrictionType `json:"restriction,omitempty" yaml:"restriction,omitempty"`
	IsConnectedThroughRail bool            `json:"is_connected_through_rail" yaml:"is_connected_through_rail"`
	IsModifiable           bool            `json:"is_modifiable" yaml:"is_modifiable"`
	Neighbourhood          DistrictID      `json:"neighbourhood" yaml:"neighbourhood"`
}

// HasRestriction reports whether the relationship carries restriction r
func (n NeighbourRelationship) HasRestriction(r RestrictionType) bool {
	return n.Restriction == r
}

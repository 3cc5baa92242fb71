package engine

import (
	"errors"

	"github.com/wricardo/citygrid/game/graph"
)

var (
	ErrPlayerNotFound      = errors.New("player not found")
	ErrNoPosition          = errors.New("player has no position")
	ErrGameFull            = errors.New("game is full")
	ErrRoleTaken           = errors.New("role is already taken")
	ErrGameAlreadyStarted  = errors.New("game has already started")
	ErrModifierCap         = errors.New("district modifier cap reached")
	ErrModifierNotFound    = errors.New("district modifier not found")
	ErrRestrictionMismatch = errors.New("edge does not hold the restriction")
	ErrInvalidBoard        = errors.New("invalid board")
)

// PlayerID is the process-wide identity of a player
type PlayerID int32

// GameID identifies a game
type GameID int32

// InGameID is the role a player holds inside a game
type InGameID string

const (
	Undecided    InGameID = "undecided"
	Orchestrator InGameID = "orchestrator"
	PlayerOne    InGameID = "player_one"
	PlayerTwo    InGameID = "player_two"
	PlayerThree  InGameID = "player_three"
	PlayerFour   InGameID = "player_four"
)

// TurnOrder is the fixed role rotation
var TurnOrder = []InGameID{Orchestrator, PlayerOne, PlayerTwo, PlayerThree, PlayerFour}

// IsValid reports whether the role is one of the known roles
func (id InGameID) IsValid() bool {
	if id == Undecided {
		return true
	}
	for _, role := range TurnOrder {
		if id == role {
			return true
		}
	}
	return false
}

// DistrictModifierType is the kind of a district modifier
type DistrictModifierType string

const (
	Access   DistrictModifierType = "access"
	Priority DistrictModifierType = "priority"
	Toll     DistrictModifierType = "toll"

	MaxAccessModifierCount   = 3
	MaxPriorityModifierCount = 3
	MaxTollModifierCount     = 3

	DefaultStartingMoves = 6
)

// ModifierCap returns the maximum number of simultaneous modifiers of kind
func ModifierCap(kind DistrictModifierType) int {
	switch kind {
	case Access:
		return MaxAccessModifierCount
	case Priority:
		return MaxPriorityModifierCount
	case Toll:
		return MaxTollModifierCount
	}
	return 0
}

// DistrictModifier changes how a district may be entered or what it costs
type DistrictModifier struct {
	District    graph.DistrictID      `json:"district"`
	Modifier    DistrictModifierType  `json:"modifier"`
	VehicleType graph.RestrictionType `json:"vehicle_type,omitempty"`
	Delete      bool                  `json:"delete,omitempty"`
}

// SameAs compares two modifiers ignoring the delete flag
func (d DistrictModifier) SameAs(other DistrictModifier) bool {
	return d.District == other.District &&
		d.Modifier == other.Modifier &&
		d.VehicleType == other.VehicleType
}

// EdgeRestriction requests a restriction change on node_one -> node_two
type EdgeRestriction struct {
	NodeOne         graph.NodeID          `json:"node_one"`
	NodeTwo         graph.NodeID          `json:"node_two"`
	EdgeRestriction graph.RestrictionType `json:"edge_restriction"`
	Delete          bool                  `json:"delete,omitempty"`
}

// ObjectiveCard is a delivery objective that also grants vehicle permissions
type ObjectiveCard struct {
	PickUpNodeID        graph.NodeID            `json:"pick_up_node_id" yaml:"pick_up_node_id"`
	DropOffNodeID       graph.NodeID            `json:"drop_off_node_id" yaml:"drop_off_node_id"`
	SpecialVehicleTypes []graph.RestrictionType `json:"special_vehicle_types" yaml:"special_vehicle_types"`
	PickedPackageUp     bool                    `json:"picked_package_up" yaml:"-"`
	Delivered           bool                    `json:"delivered" yaml:"-"`
}

// Allows reports whether the card grants the vehicle type
func (c *ObjectiveCard) Allows(vehicle graph.RestrictionType) bool {
	if c == nil {
		return false
	}
	for _, v := range c.SpecialVehicleTypes {
		if v == vehicle {
			return true
		}
	}
	return false
}

// Target returns the node the card currently points at
func (c *ObjectiveCard) Target() graph.NodeID {
	if c.PickedPackageUp {
		return c.DropOffNodeID
	}
	return c.PickUpNodeID
}

func (c *ObjectiveCard) clone() *ObjectiveCard {
	if c == nil {
		return nil
	}
	cp := *c
	cp.SpecialVehicleTypes = append([]graph.RestrictionType(nil), c.SpecialVehicleTypes...)
	return &cp
}

// Player is a participant of one game
type Player struct {
	UniqueID       PlayerID       `json:"unique_id"`
	Name           string         `json:"name"`
	InGameID       InGameID       `json:"in_game_id"`
	PositionNodeID *graph.NodeID  `json:"position_node_id,omitempty"`
	RemainingMoves int            `json:"remaining_moves"`
	IsBus          bool           `json:"is_bus"`
	ObjectiveCard  *ObjectiveCard `json:"objective_card,omitempty"`
}

func (p Player) clone() Player {
	if p.PositionNodeID != nil {
		pos := *p.PositionNodeID
		p.PositionNodeID = &pos
	}
	p.ObjectiveCard = p.ObjectiveCard.clone()
	return p
}

// InputType is the kind of a player input
type InputType string

const (
	Movement               InputType = "movement"
	ChangeRole             InputType = "change_role"
	ModifyDistrict         InputType = "modify_district"
	ModifyEdgeRestrictions InputType = "modify_edge_restrictions"
	NextTurn               InputType = "next_turn"
	UndoAction             InputType = "undo_action"
	SetPlayerBusBool       InputType = "set_player_bus_bool"
	StartGame              InputType = "start_game"
	LeaveGame              InputType = "leave_game"

	// All only appears in rule bindings; players never submit it.
	All InputType = "all"
)

// PlayerInput is an intent submitted by a player. Which payload field is
// read depends on InputType.
type PlayerInput struct {
	InputType        InputType         `json:"input_type"`
	PlayerID         PlayerID          `json:"player_id"`
	GameID           GameID            `json:"game_id"`
	RelatedRole      *InGameID         `json:"related_role,omitempty"`
	RelatedNodeID    *graph.NodeID     `json:"related_node_id,omitempty"`
	RelatedBool      *bool             `json:"related_bool,omitempty"`
	DistrictModifier *DistrictModifier `json:"district_modifier,omitempty"`
	EdgeModifier     *EdgeRestriction  `json:"edge_modifier,omitempty"`
}

// GameState is the complete state of one game
type GameState struct {
	ID                 GameID             `json:"id"`
	Name               string             `json:"name"`
	BoardName          string             `json:"board_name"`
	IsLobby            bool               `json:"is_lobby"`
	Players            []Player           `json:"players"`
	CurrentPlayersTurn InGameID           `json:"current_players_turn"`
	DistrictModifiers  []DistrictModifier `json:"district_modifiers"`
	Actions            []PlayerInput      `json:"actions"`
	Map                *graph.Map         `json:"map"`
	StartNodeID        graph.NodeID       `json:"start_node_id"`
	ObjectiveDeck      []ObjectiveCard    `json:"-"`
	StartingMoves      int                `json:"starting_moves"`
}

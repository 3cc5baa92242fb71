package engine

import (
	"fmt"

	"github.com/wricardo/citygrid/game/graph"
)

// NewGameState creates an empty lobby for the board
func NewGameState(id GameID, name string, board *Board, startingMoves int) (*GameState, error) {
	if board == nil {
		board = DefaultBoard()
	}
	if err := ValidateBoard(board); err != nil {
		return nil, err
	}
	m, err := board.BuildMap()
	if err != nil {
		return nil, err
	}
	if startingMoves <= 0 {
		startingMoves = DefaultStartingMoves
	}

	deck := make([]ObjectiveCard, 0, len(board.ObjectiveCards))
	for i := range board.ObjectiveCards {
		deck = append(deck, *board.ObjectiveCards[i].clone())
	}

	return &GameState{
		ID:                 id,
		Name:               name,
		BoardName:          board.Name,
		IsLobby:            true,
		Players:            []Player{},
		CurrentPlayersTurn: Orchestrator,
		DistrictModifiers:  []DistrictModifier{},
		Actions:            []PlayerInput{},
		Map:                m,
		StartNodeID:        board.StartNodeID,
		ObjectiveDeck:      deck,
		StartingMoves:      startingMoves,
	}, nil
}

// Clone returns a deep copy of the state
func (gs *GameState) Clone() *GameState {
	c := *gs

	c.Players = make([]Player, len(gs.Players))
	for i, p := range gs.Players {
		c.Players[i] = p.clone()
	}
	c.DistrictModifiers = append([]DistrictModifier{}, gs.DistrictModifiers...)
	c.Actions = append([]PlayerInput{}, gs.Actions...)
	c.Map = gs.Map.Clone()
	c.ObjectiveDeck = make([]ObjectiveCard, len(gs.ObjectiveDeck))
	for i := range gs.ObjectiveDeck {
		c.ObjectiveDeck[i] = *gs.ObjectiveDeck[i].clone()
	}

	return &c
}

// PlayerWithUniqueID returns a pointer to the player inside the state
func (gs *GameState) PlayerWithUniqueID(id PlayerID) (*Player, error) {
	for i := range gs.Players {
		if gs.Players[i].UniqueID == id {
			return &gs.Players[i], nil
		}
	}
	return nil, fmt.Errorf("%w: there is no player with id %d in game %d", ErrPlayerNotFound, id, gs.ID)
}

// ContainsPlayerWithUniqueID reports whether the player belongs to this game
func (gs *GameState) ContainsPlayerWithUniqueID(id PlayerID) bool {
	_, err := gs.PlayerWithUniqueID(id)
	return err == nil
}

// PlayerWithRole returns the player holding role, if any
func (gs *GameState) PlayerWithRole(role InGameID) (*Player, bool) {
	for i := range gs.Players {
		if gs.Players[i].InGameID == role {
			return &gs.Players[i], true
		}
	}
	return nil, false
}

// CountRole returns how many players hold role
func (gs *GameState) CountRole(role InGameID) int {
	count := 0
	for _, p := range gs.Players {
		if p.InGameID == role {
			count++
		}
	}
	return count
}

// AssignPlayerToGame adds the player to the lobby. The first player without
// an Orchestrator present becomes the Orchestrator; everyone else takes the
// first free player role.
func (gs *GameState) AssignPlayerToGame(p Player) error {
	if !gs.IsLobby {
		return ErrGameAlreadyStarted
	}
	if gs.ContainsPlayerWithUniqueID(p.UniqueID) {
		return fmt.Errorf("player %d is already in game %d", p.UniqueID, gs.ID)
	}

	role, ok := gs.firstFreeRole()
	if !ok {
		return fmt.Errorf("%w: game %d has no free role", ErrGameFull, gs.ID)
	}

	p.InGameID = role
	p.PositionNodeID = nil
	p.RemainingMoves = 0
	p.IsBus = false
	p.ObjectiveCard = nil
	gs.Players = append(gs.Players, p)
	return nil
}

func (gs *GameState) firstFreeRole() (InGameID, bool) {
	for _, role := range TurnOrder {
		if _, taken := gs.PlayerWithRole(role); !taken {
			return role, true
		}
	}
	return "", false
}

// AssignPlayerRole moves a lobby player to another role
func (gs *GameState) AssignPlayerRole(id PlayerID, role InGameID) error {
	if !gs.IsLobby {
		return fmt.Errorf("%w: roles cannot change", ErrGameAlreadyStarted)
	}
	if !role.IsValid() {
		return fmt.Errorf("unknown role %q", role)
	}
	player, err := gs.PlayerWithUniqueID(id)
	if err != nil {
		return err
	}
	if player.InGameID == role {
		return nil
	}
	if role != Undecided {
		if _, taken := gs.PlayerWithRole(role); taken {
			return fmt.Errorf("%w: %s", ErrRoleTaken, role)
		}
	}
	player.InGameID = role
	return nil
}

// RemovePlayerWithUniqueID removes the player and reports whether it was present
func (gs *GameState) RemovePlayerWithUniqueID(id PlayerID) bool {
	for i := range gs.Players {
		if gs.Players[i].UniqueID == id {
			gs.Players = append(gs.Players[:i], gs.Players[i+1:]...)
			return true
		}
	}
	return false
}

// Begin leaves the lobby: players holding a player role are placed on the
// start node and dealt objective cards in join order, every player gets the
// per-turn allotment and the turn goes to the first held role. Undecided
// players stay off the board.
func (gs *GameState) Begin() {
	gs.IsLobby = false
	dealt := 0
	for i := range gs.Players {
		p := &gs.Players[i]
		p.RemainingMoves = gs.StartingMoves
		if p.InGameID == Orchestrator || p.InGameID == Undecided {
			continue
		}
		start := gs.StartNodeID
		p.PositionNodeID = &start
		if dealt < len(gs.ObjectiveDeck) {
			p.ObjectiveCard = gs.ObjectiveDeck[dealt].clone()
			dealt++
		}
	}

	for _, role := range TurnOrder {
		if _, ok := gs.PlayerWithRole(role); ok {
			gs.CurrentPlayersTurn = role
			return
		}
	}
}

// NextPlayerTurn advances the turn pointer to the next held role in
// TurnOrder and resets that player's remaining moves.
func (gs *GameState) NextPlayerTurn() {
	current := -1
	for i, role := range TurnOrder {
		if role == gs.CurrentPlayersTurn {
			current = i
			break
		}
	}

	for step := 1; step <= len(TurnOrder); step++ {
		role := TurnOrder[(current+step+len(TurnOrder))%len(TurnOrder)]
		if p, ok := gs.PlayerWithRole(role); ok {
			gs.CurrentPlayersTurn = role
			p.RemainingMoves = gs.StartingMoves
			return
		}
	}
}

// SetPlayerBus switches the player's bus mode
func (gs *GameState) SetPlayerBus(id PlayerID, isBus bool) error {
	player, err := gs.PlayerWithUniqueID(id)
	if err != nil {
		return err
	}
	player.IsBus = isBus
	return nil
}

// ApplyDistrictModifier adds the modifier, or removes the first equal one
// when Delete is set
func (gs *GameState) ApplyDistrictModifier(mod DistrictModifier) error {
	if mod.Delete {
		mod.Delete = false
		for i, existing := range gs.DistrictModifiers {
			if existing.SameAs(mod) {
				gs.DistrictModifiers = append(gs.DistrictModifiers[:i], gs.DistrictModifiers[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: there is no modifier like the given one in the game", ErrModifierNotFound)
	}

	limit := ModifierCap(mod.Modifier)
	if limit == 0 {
		return fmt.Errorf("unknown district modifier type %q", mod.Modifier)
	}
	if gs.CountModifiers(mod.Modifier) >= limit {
		return fmt.Errorf("%w: cannot add more modifiers of type %s because there are already %d", ErrModifierCap, mod.Modifier, limit)
	}

	gs.DistrictModifiers = append(gs.DistrictModifiers, mod)
	return nil
}

// CountModifiers returns the number of modifiers of kind
func (gs *GameState) CountModifiers(kind DistrictModifierType) int {
	count := 0
	for _, m := range gs.DistrictModifiers {
		if m.Modifier == kind {
			count++
		}
	}
	return count
}

// ApplyEdgeRestriction sets or clears the restriction on node_one -> node_two.
// Deleting requires the edge to hold the named restriction. Restrictions
// other than OneWay are mirrored onto node_two -> node_one when that
// relationship is modifiable and carried the same restriction as the
// forward edge before the change.
func (gs *GameState) ApplyEdgeRestriction(er EdgeRestriction) error {
	forward, ok := gs.Map.Relationship(er.NodeOne, er.NodeTwo)
	if !ok {
		return fmt.Errorf("%w: %d->%d", graph.ErrRelationshipNotFound, er.NodeOne, er.NodeTwo)
	}
	previous := forward.Restriction

	restriction := er.EdgeRestriction
	if er.Delete {
		if previous != er.EdgeRestriction {
			return fmt.Errorf("%w: %d->%d holds %q, not %q", ErrRestrictionMismatch, er.NodeOne, er.NodeTwo, previous, er.EdgeRestriction)
		}
		restriction = graph.NoRestriction
	}
	if err := gs.Map.SetRestriction(er.NodeOne, er.NodeTwo, restriction); err != nil {
		return err
	}

	if er.EdgeRestriction == graph.OneWay || previous == graph.OneWay {
		return nil
	}
	if reverse, ok := gs.Map.Relationship(er.NodeTwo, er.NodeOne); ok && reverse.IsModifiable && reverse.Restriction == previous {
		return gs.Map.SetRestriction(er.NodeTwo, er.NodeOne, restriction)
	}
	return nil
}

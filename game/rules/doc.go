// Package rules decides whether a player input is legal.
//
// A Checker holds an ordered list of rules. Each Rule binds a check function
// to the input types it governs, or to engine.All for every input. Checking
// walks the rules in registration order, skips rules not bound to the
// input's type and stops at the first violation; later rules never run.
//
// Default returns the game's rule set in its precedence order:
//
//  1. the game has started
//  2. it is the player's turn
//  3. the player is the orchestrator
//  4. the player has a position
//  5. the player can toggle bus mode
//  6. the target node is a neighbour
//  7. the player has enough moves
//  8. the player can move to the node
//  9. the edge restriction can be modified
package rules

// Package engine provides the game state of a citygrid game.
//
// The engine package implements the state aggregate and its primitives:
//   - Players, roles and the fixed turn rotation
//   - Objective cards and their pick-up/drop-off progress
//   - District modifiers with per-kind caps
//   - The movement primitive and its cost model
//   - Edge restriction changes on the game's own copy of the map
//   - Boards (map + start node + objective deck) and their validation
//
// Core Types:
//
// GameState is the aggregate mutated by the controller. PlayerInput is the
// tagged input submitted by players; its InputType selects which optional
// payload field is meaningful. Board describes the static setup a game is
// created from.
//
// Usage:
//
//	board := engine.DefaultBoard()
//	state, err := engine.NewGameState(42, "friday night", board, 6)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	host := engine.Player{UniqueID: 7, Name: "ada"}
//	if err := state.AssignPlayerToGame(host); err != nil {
//		log.Fatal(err)
//	}
//
// Cloning:
//
// Every validation that has to look ahead works on a Clone of the state. A
// clone shares nothing mutable with its source, so replaying inputs into it
// never leaks into the authoritative state.
package engine

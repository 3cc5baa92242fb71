// Package controller owns the games and the player identity registry.
//
// The Controller routes every player input through a Validator, then into
// the action pipeline:
//
//   - Movement and ModifyDistrict are staged in the game's pending action
//     log after the whole log has been replayed on a clone
//   - NextTurn replays the log on a clone, swaps the clone in, clears the
//     log and advances the turn
//   - UndoAction pops the last staged input
//   - ChangeRole, SetPlayerBusBool, ModifyEdgeRestrictions, StartGame and
//     LeaveGame are applied immediately
//
// Every state handed out is a projection: a clone of the stored state with
// the pending log replayed into it. The stored state is only ever replaced
// by a swap, so a failed input leaves it untouched.
//
// The Controller does no locking. Callers serialize mutations, see
// game/service.
package controller

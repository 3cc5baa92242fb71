// Package websocket provides the WebSocket transport for citygrid.
//
// Clients subscribe to one game with /ws?game=<id>. The hub sends the
// current projected state on connect, then every state the service commits
// for that game.
//
// Message Protocol:
//
// Outgoing messages are JSON, one per frame:
//
//	{"game_id": 17, "event": "state_update", "game_state": {...}}
//	{"game_id": 17, "event": "input_rejected", "error": "input rejected: It's not the current players turn"}
//	{"game_id": 17, "event": "game_closed"}
//
// Incoming messages are player inputs; the game id is taken from the
// connection:
//
//	{"input_type": "movement", "player_id": 1234, "related_node_id": 2}
//
// Accepted inputs are not acknowledged directly, the resulting state
// arrives as a state_update like everyone else's. Rejections are sent to
// the submitting connection only.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	svc := service.NewGameService(ctrl, boards, service.WithBroadcaster(hub))
//
// Concurrency:
//
// Registration, broadcast and disconnects are serialized by the hub's Run
// loop. Every connection has its own read and write goroutine.
package websocket

// Package config provides process settings and board management for the
// citygrid server.
//
// Settings are read from CITYGRID_* environment variables, optionally
// seeded from a .env file:
//
//	settings, err := config.Load()
//
// Boards are YAML or JSON files in the board directory. Each one describes
// the nodes, the directed neighbour relationships (with restriction, rail
// and modifiability flags and the district they lie in), the start node and
// the objective card deck:
//
//	name: harbour
//	start_node_id: 1
//	nodes:
//	  - {id: 1, name: Depot, is_parking_spot: true}
//	  - {id: 2, name: Quay}
//	edges:
//	  - {from: 1, to: 2, neighbourhood: docks, is_modifiable: true}
//	  - {from: 2, to: 1, neighbourhood: docks, is_modifiable: true}
//	objective_cards:
//	  - {pick_up_node_id: 2, drop_off_node_id: 1, special_vehicle_types: [taxi]}
//
// Usage:
//
//	manager, err := config.NewManager("boards")
//	board, err := manager.LoadBoard("harbour")
//	boards, err := manager.ListBoards()
//
// Every board is validated with engine.ValidateBoard when it is loaded or
// saved. The built-in board is always available as "default".
package config

// Package service is the concurrency shell around the game controller.
//
// The controller assumes one mutation at a time, so the service holds a
// single exclusive lock for every call into it, reads included, because
// every controller call may purge expired players first. Transports (REST,
// WebSocket, MCP) only ever talk to GameService.
//
// Committed states are handed to a Broadcaster while the lock is held, so
// subscribers observe them in commit order. Broadcaster implementations
// must not block. Games the controller drops (last player left or expired)
// are reported through Broadcaster.CloseGame.
//
// Usage:
//
//	ctrl := controller.New(logging.New(log.Logger), rules.Default())
//	boards, _ := config.NewManager("boards")
//	svc := service.NewGameService(ctrl, boards, service.WithBroadcaster(hub))
//	go service.RunSweeper(ctx, svc, 15*time.Second)
//
//	player, _ := svc.IssuePlayerID(ctx)
//	game, _ := svc.CreateGame(ctx, service.CreateGameRequest{HostID: player.PlayerID})
package service

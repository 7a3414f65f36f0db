package adapter

import (
	"context"

	"hostilerust-bot/internal/domain/model"
)

// GameServerProbe queries a game server's public status endpoint.
//
// Probe never returns an error: any network failure, malformed response or
// timeout collapses to ServerStatus{Online: false}.
type GameServerProbe interface {
	Probe(ctx context.Context, address string) model.ServerStatus
}

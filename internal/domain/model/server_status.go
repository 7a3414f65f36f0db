package model

// ServerStatus is the result of one game-server probe. A failed probe is a
// valid value (Online=false), never an error.
type ServerStatus struct {
	Online     bool
	Players    int
	MaxPlayers int
}

// GameServer identifies one probeable game server from configuration.
type GameServer struct {
	Name    string
	Address string // host:port of the A2S query endpoint
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(serverOnline, serverPlayers) }

var serverOnline = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "game_server_online",
		Help: "1 when the game server answered the last probe, 0 otherwise.",
	},
	[]string{"server"},
)

var serverPlayers = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "game_server_players",
		Help: "Player count reported by the last successful probe.",
	},
	[]string{"server"},
)

func ObserveServerStatus(server string, online bool, players int) {
	v := 0.0
	if online {
		v = 1.0
	}
	serverOnline.WithLabelValues(norm(server)).Set(v)
	serverPlayers.WithLabelValues(norm(server)).Set(float64(players))
}

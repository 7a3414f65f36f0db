package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(broadcastMessagesTotal, wipeNotificationsTotal) }

var broadcastMessagesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "broadcast_messages_total",
		Help: "Broadcast deliveries, labeled by result.",
	},
	[]string{"result"}, // 'sent', 'failed'
)

var wipeNotificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wipe_notifications_total",
		Help: "Wipe announcements fired, labeled by kind.",
	},
	[]string{"kind"}, // 'warning', 'notification'
)

func IncBroadcast(result string) {
	broadcastMessagesTotal.WithLabelValues(norm(result)).Inc()
}

func IncWipeNotification(kind string) {
	wipeNotificationsTotal.WithLabelValues(norm(kind)).Inc()
}

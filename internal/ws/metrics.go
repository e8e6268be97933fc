package ws

import "github.com/prometheus/client_golang/prometheus"

var (
	Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections",
		Help: "Open live feed connections",
	})
	Dropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_dropped_clients_total",
		Help: "Clients dropped because their send buffer was full",
	})
)

func init() {
	prometheus.MustRegister(Connections, Dropped)
}

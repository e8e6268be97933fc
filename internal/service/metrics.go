package service

import "github.com/prometheus/client_golang/prometheus"

var (
	TapsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tapearn_taps_total",
		Help: "Taps accepted by the ledger",
	})
	CoinsCredited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tapearn_coins_credited_total",
			Help: "Coins credited to accounts by source",
		},
		[]string{"source"},
	)
	WithdrawalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tapearn_withdrawals_total",
			Help: "Withdrawal requests by resulting status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(TapsTotal, CoinsCredited, WithdrawalsTotal)
}

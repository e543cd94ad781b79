package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StreamMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickerdash_stream_messages_total",
			Help: "Stream messages received, by stream kind and outcome",
		},
		[]string{"stream", "result"},
	)

	WindowUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickerdash_window_updates_total",
			Help: "Kline updates applied to the candle window, by outcome",
		},
		[]string{"symbol", "result"},
	)

	HistoryLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickerdash_history_loads_total",
			Help: "Bulk history loads, by outcome",
		},
		[]string{"symbol", "result"},
	)

	HistoryLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tickerdash_history_load_duration_seconds",
			Help:    "Bulk history fetch duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"symbol"},
	)

	WindowCandles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tickerdash_window_candles",
			Help: "Candles currently held for the active pair",
		},
	)

	ActivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickerdash_activations_total",
			Help: "Pair activations",
		},
		[]string{"symbol"},
	)
)

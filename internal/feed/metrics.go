package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectsTotal tracks successful feed connections.
	ConnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolarb_feed_connects_total",
		Help: "Total number of successful feed connections",
	})

	// DisconnectsTotal tracks dropped feed connections.
	DisconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolarb_feed_disconnects_total",
		Help: "Total number of dropped feed connections",
	})

	// ReconnectFailuresTotal tracks failed dial attempts.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolarb_feed_reconnect_failures_total",
		Help: "Total number of failed feed dial attempts",
	})

	// UpdatesTotal tracks applied pool updates.
	UpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolarb_feed_updates_total",
		Help: "Total number of pool updates applied from the feed",
	})

	// DecodeErrorsTotal tracks undecodable feed messages.
	DecodeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolarb_feed_decode_errors_total",
		Help: "Total number of feed messages that failed to decode",
	})
)

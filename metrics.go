// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package converse

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics are the connection-level Prometheus collectors. They are always
// allocated; registration only happens when the caller provides a registerer
// through WithRegisterer.
type metrics struct {
	connected       prometheus.Gauge
	reconnects      prometheus.Counter
	framesReceived  *prometheus.CounterVec
	queriesInflight prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "converse",
			Subsystem: "session",
			Name:      "connected",
			Help:      "Whether the session is online (1) or not (0)",
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "converse",
			Subsystem: "session",
			Name:      "reconnects_total",
			Help:      "Total number of automatic reconnect attempts",
		}),
		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "converse",
			Subsystem: "frames",
			Name:      "received_total",
			Help:      "Total number of inbound frames by stanza kind",
		}, []string{"kind"}),
		queriesInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "converse",
			Subsystem: "queries",
			Name:      "inflight",
			Help:      "Number of correlated requests awaiting a response",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.connected, m.reconnects, m.framesReceived, m.queriesInflight)
	}
	return m
}

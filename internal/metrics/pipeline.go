package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Realtime pipeline Prometheus metrics. These are defined in a standalone package to avoid
// import cycles between the stream/broadcast/ws packages and HTTP packages.

var (
	WSConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections",
		Help: "Sesiones WebSocket abiertas en este nodo",
	})

	WSMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_messages_total",
		Help: "Mensajes entrantes por acción y resultado",
	}, []string{"action", "result"}) // result: ok|error

	StreamRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stream_records_total",
		Help: "Registros del changelog por resultado de clasificación",
	}, []string{"result"}) // result: notified|skipped|discarded

	StreamCursorSeq = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stream_cursor_seq",
		Help: "Última secuencia del changelog confirmada por el consumidor",
	})

	BroadcastDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "broadcast_deliveries_total",
		Help: "Entregas de notificaciones por resultado",
	}, []string{"result"}) // result: ok|gone|failed

	BroadcastFanoutLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "broadcast_fanout_latency_ms",
		Help:    "Latencia del fanout completo en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// RegisterPipeline registers the realtime pipeline metrics on the given registry (or default if nil).
func RegisterPipeline(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		WSConnections,
		WSMessagesTotal,
		StreamRecordsTotal,
		StreamCursorSeq,
		BroadcastDeliveriesTotal,
		BroadcastFanoutLatency,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

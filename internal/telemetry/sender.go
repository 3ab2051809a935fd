package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Prometheus telemetry metrics.
var (
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wlanix_telemetry_events_total",
			Help: "Total number of telemetry events recorded, by kind.",
		},
		[]string{"kind"},
	)
	eventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wlanix_telemetry_events_dropped_total",
			Help: "Telemetry events dropped because the pipeline was full.",
		},
	)
)

func init() {
	prometheus.MustRegister(eventsTotal)
	prometheus.MustRegister(eventsDropped)
}

// Sender is the producer half of the telemetry pipeline. Send never
// blocks the request path: when the service falls behind, events are
// counted as dropped instead of queued.
type Sender struct {
	logger  *zap.Logger
	ch      chan Event
	dropLog *rate.Limiter
}

// NewSender returns a sender and the channel the service drains.
func NewSender(logger *zap.Logger, buffer int) (*Sender, <-chan Event) {
	s := &Sender{
		logger: logger.Named("telemetry"),
		ch:     make(chan Event, buffer),
		// One drop warning per 10 seconds keeps a wedged consumer from
		// flooding the log.
		dropLog: rate.NewLimiter(rate.Limit(0.1), 1),
	}
	return s, s.ch
}

// Send records one event.
func (s *Sender) Send(e Event) {
	eventsTotal.WithLabelValues(e.Kind()).Inc()
	select {
	case s.ch <- e:
	default:
		eventsDropped.Inc()
		if s.dropLog.Allow() {
			s.logger.Warn("telemetry pipeline full, dropping event",
				zap.String("kind", e.Kind()))
		}
	}
}

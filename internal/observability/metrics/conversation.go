package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics tracks what the ordering dialogue does per turn.
type ConversationMetrics struct {
	turnsTotal      *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	rejectedTotal   prometheus.Counter
	duplicatesTotal prometheus.Counter
	ordersTotal     *prometheus.CounterVec
	orderValue      prometheus.Histogram
	turnLatency     prometheus.Histogram
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pharmacare",
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Processed interactions by parsed action",
		}, []string{"action"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pharmacare",
			Subsystem: "conversation",
			Name:      "state_transitions_total",
			Help:      "Session state transitions",
		}, []string{"from", "to"}),
		rejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pharmacare",
			Subsystem: "conversation",
			Name:      "gate_rejections_total",
			Help:      "Interactions from senders outside the allow-list",
		}),
		duplicatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pharmacare",
			Subsystem: "conversation",
			Name:      "duplicate_deliveries_total",
			Help:      "Webhook redeliveries skipped by message id",
		}),
		ordersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pharmacare",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Orders placed by payment method",
		}, []string{"payment_method"}),
		orderValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pharmacare",
			Subsystem: "orders",
			Name:      "value_rupees",
			Help:      "Order totals in rupees",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000},
		}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pharmacare",
			Subsystem: "conversation",
			Name:      "turn_latency_seconds",
			Help:      "Time from dequeue to last outbound send",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.transitions, m.rejectedTotal, m.duplicatesTotal,
		m.ordersTotal, m.orderValue, m.turnLatency)
	return m
}

func (m *ConversationMetrics) ObserveTurn(action, from, to string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(action).Inc()
	if from != to {
		m.transitions.WithLabelValues(from, to).Inc()
	}
	m.turnLatency.Observe(seconds)
}

func (m *ConversationMetrics) ObserveRejected() {
	if m == nil {
		return
	}
	m.rejectedTotal.Inc()
}

func (m *ConversationMetrics) ObserveDuplicate() {
	if m == nil {
		return
	}
	m.duplicatesTotal.Inc()
}

func (m *ConversationMetrics) ObserveOrder(paymentMethod string, rupees float64) {
	if m == nil {
		return
	}
	m.ordersTotal.WithLabelValues(paymentMethod).Inc()
	m.orderValue.Observe(rupees)
}

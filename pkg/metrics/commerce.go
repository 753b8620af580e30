package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CommerceMetrics counts order, ledger and outbox activity.
type CommerceMetrics struct {
	ordersPlaced      *prometheus.CounterVec
	orderTransitions  *prometheus.CounterVec
	creditPostings    *prometheus.CounterVec
	creditRejections  *prometheus.CounterVec
	outboxPublished   *prometheus.CounterVec
	outboxDeadLetters prometheus.Counter
}

// NewCommerceMetrics registers the commerce collectors on reg. A nil
// registerer yields a no-op recorder.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	m := &CommerceMetrics{
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders created from carts.",
		}, []string{"order_type", "payment_method"}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Accepted order status transitions.",
		}, []string{"from", "to"}),
		creditPostings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credit_postings_total",
			Help:      "Ledger postings by transaction type.",
		}, []string{"type"}),
		creditRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credit_rejections_total",
			Help:      "Ledger postings refused by limit or overpayment checks.",
		}, []string{"type"}),
		outboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_publish_total",
			Help:      "Outbox publish attempts by topic and result.",
		}, []string{"topic", "result"}),
		outboxDeadLetters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_dead_letters_total",
			Help:      "Outbox events moved to the dead letter table.",
		}),
	}
	reg.MustRegister(
		m.ordersPlaced,
		m.orderTransitions,
		m.creditPostings,
		m.creditRejections,
		m.outboxPublished,
		m.outboxDeadLetters,
	)
	return m
}

func (m *CommerceMetrics) OrderPlaced(orderType, paymentMethod string) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(normalizeLabel(orderType), normalizeLabel(paymentMethod)).Inc()
}

func (m *CommerceMetrics) OrderTransition(from, to string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *CommerceMetrics) CreditPosted(txnType string) {
	if m == nil || m.creditPostings == nil {
		return
	}
	m.creditPostings.WithLabelValues(normalizeLabel(txnType)).Inc()
}

func (m *CommerceMetrics) CreditRejected(txnType string) {
	if m == nil || m.creditRejections == nil {
		return
	}
	m.creditRejections.WithLabelValues(normalizeLabel(txnType)).Inc()
}

func (m *CommerceMetrics) OutboxPublished(topic string, ok bool) {
	if m == nil || m.outboxPublished == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.outboxPublished.WithLabelValues(normalizeLabel(topic), result).Inc()
}

func (m *CommerceMetrics) OutboxDeadLettered() {
	if m == nil || m.outboxDeadLetters == nil {
		return
	}
	m.outboxDeadLetters.Inc()
}

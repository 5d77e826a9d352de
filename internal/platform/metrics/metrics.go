package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics is
// valid and records nothing, so tests can skip registration entirely.
type Metrics struct {
	CommandsHandled       *prometheus.CounterVec
	Confirmations         *prometheus.CounterVec
	SyncMessagesPublished prometheus.Counter
	RegistryLookupErrors  prometheus.Counter
}

// Confirmation outcomes.
const (
	ConfirmationConfirmed = "confirmed"
	ConfirmationDeclined  = "declined"
	ConfirmationTimeout   = "timeout"
)

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CommandsHandled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rolesync_commands_handled_total",
			Help: "Total administrator commands handled, by command name.",
		}, []string{"command"}),
		Confirmations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rolesync_confirmations_total",
			Help: "Confirmation gate outcomes for destructive operations.",
		}, []string{"outcome"}),
		SyncMessagesPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rolesync_sync_messages_published_total",
			Help: "Total anchor messages posted by the sync publisher.",
		}),
		RegistryLookupErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rolesync_registry_lookup_errors_total",
			Help: "Purchase registry lookups that failed.",
		}),
	}
}

// IncCommand records one handled command.
func (m *Metrics) IncCommand(command string) {
	if m == nil {
		return
	}
	m.CommandsHandled.WithLabelValues(command).Inc()
}

// IncConfirmation records one confirmation gate outcome.
func (m *Metrics) IncConfirmation(outcome string) {
	if m == nil {
		return
	}
	m.Confirmations.WithLabelValues(outcome).Inc()
}

// IncSyncMessagePublished records one posted anchor message.
func (m *Metrics) IncSyncMessagePublished() {
	if m == nil {
		return
	}
	m.SyncMessagesPublished.Inc()
}

// IncRegistryLookupError records one failed registry lookup.
func (m *Metrics) IncRegistryLookupError() {
	if m == nil {
		return
	}
	m.RegistryLookupErrors.Inc()
}

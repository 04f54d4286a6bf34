// Package coremetrics exposes prometheus metrics of simulated chains.
package coremetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

type Metrics struct {
	Registry          *prometheus.Registry
	DeliveredMessages *prometheus.CounterVec
	HostHeight        *prometheus.GaugeVec
	ClientHeight      *prometheus.GaugeVec
	FrozenClients     *prometheus.CounterVec
}

func (m *Metrics) IncDeliveredMessages(chain, msgType, result string) {
	m.DeliveredMessages.WithLabelValues(chain, msgType, result).Inc()
}

func (m *Metrics) SetHostHeight(chain string, height uint64) {
	m.HostHeight.WithLabelValues(chain).Set(float64(height))
}

func (m *Metrics) SetClientHeight(chain, clientID string, height uint64) {
	m.ClientHeight.WithLabelValues(chain, clientID).Set(float64(height))
}

func (m *Metrics) IncFrozenClients(chain, clientID string) {
	m.FrozenClients.WithLabelValues(chain, clientID).Inc()
}

func NewMetrics() *Metrics {
	messageLabels := []string{"chain", "msg_type", "result"}
	heightLabels := []string{"chain"}
	clientLabels := []string{"chain", "client_id"}
	registry := prometheus.NewRegistry()
	registerer := promauto.With(registry)
	return &Metrics{
		Registry: registry,
		DeliveredMessages: registerer.NewCounterVec(prometheus.CounterOpts{
			Name: "lightcore_delivered_messages_total",
			Help: "The total number of messages delivered to a chain, by message type and result",
		}, messageLabels),
		HostHeight: registerer.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lightcore_chain_height",
			Help: "The current height of the chain",
		}, heightLabels),
		ClientHeight: registerer.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lightcore_client_latest_height",
			Help: "The latest height verified by a light client",
		}, clientLabels),
		FrozenClients: registerer.NewCounterVec(prometheus.CounterOpts{
			Name: "lightcore_frozen_clients_total",
			Help: "The total number of light clients frozen after misbehaviour",
		}, clientLabels),
	}
}

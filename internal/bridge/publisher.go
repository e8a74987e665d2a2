// internal/bridge/publisher.go
package bridge

import (
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/dmm-bridge/internal/monitor"
	"github.com/tamzrod/dmm-bridge/internal/scpi"
)

// Publisher routes classified responses to the sinks.
type Publisher struct {
	sink    Sink
	log     *logrus.Entry
	metrics *monitor.Metrics
}

func NewPublisher(sink Sink, log *logrus.Entry, m *monitor.Metrics) *Publisher {
	return &Publisher{sink: sink, log: log, metrics: m}
}

// Publish delivers r. Unclassified lines are logged and dropped.
func (p *Publisher) Publish(r scpi.Response) {
	p.metrics.Response(r.Kind.String())

	switch r.Kind {
	case scpi.KindIdentification:
		p.log.Infof("identification: %s", r.Text)
		p.sink.PublishIdentification(r.Text)

	case scpi.KindNumeric:
		p.metrics.Value(r.Value)
		p.sink.PublishValue(r.Value)

	default:
		p.log.WithError(r.Err).Warnf("unclassified response: %q", r.Text)
	}
}

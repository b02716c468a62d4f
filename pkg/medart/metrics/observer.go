// Package metrics exports upload grant and delivery metrics to Prometheus.
package metrics

import (
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/tendant/medical-artists/pkg/medart"
	"github.com/tendant/medical-artists/pkg/medart/delivery"
	"github.com/tendant/medical-artists/pkg/medart/sweeper"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "medart"

// PrometheusObserver implements medart.Observer, delivery.Observer and
// sweeper.Observer.
type PrometheusObserver struct {
	grants        *promclient.CounterVec
	grantDuration promclient.Histogram
	confirms      *promclient.CounterVec
	deliveryURLs  *promclient.CounterVec
	swept         *promclient.CounterVec
}

var (
	_ medart.Observer   = (*PrometheusObserver)(nil)
	_ delivery.Observer = (*PrometheusObserver)(nil)
	_ sweeper.Observer  = (*PrometheusObserver)(nil)
)

// NewPrometheusObserver registers all collectors with reg. Collectors that
// are already registered are reused.
func NewPrometheusObserver(namespace string, reg promclient.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = promclient.DefaultRegisterer
	}

	o := &PrometheusObserver{}
	var err error

	if o.grants, err = register(reg, promclient.NewCounterVec(promclient.CounterOpts{
		Namespace: namespace,
		Name:      "grants_issued_total",
		Help:      "Upload grant requests by result.",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if o.grantDuration, err = register(reg, promclient.NewHistogram(promclient.HistogramOpts{
		Namespace: namespace,
		Name:      "grant_duration_seconds",
		Help:      "Latency of upload grant requests.",
		Buckets:   promclient.DefBuckets,
	})); err != nil {
		return nil, err
	}
	if o.confirms, err = register(reg, promclient.NewCounterVec(promclient.CounterOpts{
		Namespace: namespace,
		Name:      "upload_confirmations_total",
		Help:      "Upload confirmations by resulting status.",
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if o.deliveryURLs, err = register(reg, promclient.NewCounterVec(promclient.CounterOpts{
		Namespace: namespace,
		Name:      "delivery_urls_total",
		Help:      "Delivery URLs built by mode.",
	}, []string{"mode"})); err != nil {
		return nil, err
	}
	if o.swept, err = register(reg, promclient.NewCounterVec(promclient.CounterOpts{
		Namespace: namespace,
		Name:      "sweeper_records_total",
		Help:      "Stale pending records resolved by the sweeper, by outcome.",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}

	return o, nil
}

func register[T promclient.Collector](reg promclient.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(promclient.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, fmt.Errorf("register collector: %w", err)
	}
	return c, nil
}

// RecordGrant counts a grant request by error kind and observes its latency
func (o *PrometheusObserver) RecordGrant(duration time.Duration, err error) {
	if o == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = medart.KindOf(err).String()
	}
	o.grants.WithLabelValues(result).Inc()
	o.grantDuration.Observe(duration.Seconds())
}

// RecordConfirm counts a confirmation by resulting status
func (o *PrometheusObserver) RecordConfirm(status medart.ImageStatus, err error) {
	if o == nil {
		return
	}
	label := string(status)
	if err != nil {
		label = "error_" + medart.KindOf(err).String()
	}
	o.confirms.WithLabelValues(label).Inc()
}

func (o *PrometheusObserver) RecordDeliveryURL(mode string) {
	if o == nil {
		return
	}
	o.deliveryURLs.WithLabelValues(mode).Inc()
}

func (o *PrometheusObserver) RecordSwept(outcome string) {
	if o == nil {
		return
	}
	o.swept.WithLabelValues(outcome).Inc()
}

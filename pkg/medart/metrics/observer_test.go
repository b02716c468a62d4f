package metrics

import (
	"errors"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/medical-artists/pkg/medart"
	"github.com/tendant/medical-artists/pkg/medart/delivery"
)

func TestPrometheusObserver(t *testing.T) {
	reg := promclient.NewRegistry()
	o, err := NewPrometheusObserver("", reg)
	require.NoError(t, err)

	o.RecordGrant(10*time.Millisecond, nil)
	o.RecordGrant(5*time.Millisecond, medart.ErrPayloadTooLarge)
	o.RecordGrant(5*time.Millisecond, &medart.GrantError{Op: "presign", Err: medart.ErrStorageAuth})

	assert.Equal(t, 1.0, testutil.ToFloat64(o.grants.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.grants.WithLabelValues("too_large")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.grants.WithLabelValues("authentication")))
	assert.Equal(t, 1, testutil.CollectAndCount(o.grantDuration))

	o.RecordConfirm(medart.ImageStatusUploaded, nil)
	o.RecordConfirm("", medart.ErrObjectNotUploaded)
	assert.Equal(t, 1.0, testutil.ToFloat64(o.confirms.WithLabelValues("uploaded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.confirms.WithLabelValues("error_conflict")))

	o.RecordDeliveryURL(delivery.ModeSigned)
	o.RecordDeliveryURL(delivery.ModeSigned)
	assert.Equal(t, 2.0, testutil.ToFloat64(o.deliveryURLs.WithLabelValues("signed")))

	o.RecordSwept("expired")
	assert.Equal(t, 1.0, testutil.ToFloat64(o.swept.WithLabelValues("expired")))
}

func TestPrometheusObserver_ReusesRegisteredCollectors(t *testing.T) {
	reg := promclient.NewRegistry()
	first, err := NewPrometheusObserver("medart", reg)
	require.NoError(t, err)
	second, err := NewPrometheusObserver("medart", reg)
	require.NoError(t, err)

	first.RecordDeliveryURL("unsigned")
	assert.Equal(t, 1.0, testutil.ToFloat64(second.deliveryURLs.WithLabelValues("unsigned")))
}

func TestPrometheusObserver_Nil(t *testing.T) {
	var o *PrometheusObserver
	assert.NotPanics(t, func() {
		o.RecordGrant(time.Second, errors.New("x"))
		o.RecordConfirm(medart.ImageStatusExpired, nil)
		o.RecordDeliveryURL("signed")
		o.RecordSwept("error")
	})
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("POST", "/manga/:mangaID/unlock", "200", 0.05)

	count := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/manga/:mangaID/unlock", "200"))
	assert.Equal(t, float64(1), count)
}

func TestRecordHTTPRequestMultiple(t *testing.T) {
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("POST", "/auth/login", "200", 0.1)
	RecordHTTPRequest("POST", "/auth/login", "200", 0.2)
	RecordHTTPRequest("POST", "/auth/login", "401", 0.05)

	successCount := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/auth/login", "200"))
	failCount := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/auth/login", "401"))

	assert.Equal(t, float64(2), successCount)
	assert.Equal(t, float64(1), failCount)
}

func TestRecordUnlock(t *testing.T) {
	UnlocksTotal.Reset()

	RecordUnlock("completed", 60)
	RecordUnlock("insufficient_funds", 0)

	completed := testutil.ToFloat64(UnlocksTotal.WithLabelValues("completed"))
	rejected := testutil.ToFloat64(UnlocksTotal.WithLabelValues("insufficient_funds"))

	assert.Equal(t, float64(1), completed)
	assert.Equal(t, float64(1), rejected)
}

func TestRecordPurchase(t *testing.T) {
	CoinPurchasesTotal.Reset()

	RecordPurchase("completed", 500)
	RecordPurchase("duplicate", 0)

	completed := testutil.ToFloat64(CoinPurchasesTotal.WithLabelValues("completed"))
	duplicate := testutil.ToFloat64(CoinPurchasesTotal.WithLabelValues("duplicate"))

	assert.Equal(t, float64(1), completed)
	assert.Equal(t, float64(1), duplicate)
}

func TestRecordPayout(t *testing.T) {
	PayoutsTotal.Reset()

	RecordPayout("pending")
	RecordPayout("pending")
	RecordPayout("completed")

	pending := testutil.ToFloat64(PayoutsTotal.WithLabelValues("pending"))
	completed := testutil.ToFloat64(PayoutsTotal.WithLabelValues("completed"))

	assert.Equal(t, float64(2), pending)
	assert.Equal(t, float64(1), completed)
}

func TestRecordNotification(t *testing.T) {
	NotificationsQueuedTotal.Reset()

	RecordNotification("coins_earned")
	RecordNotification("manga_unlocked")
	RecordNotification("coins_earned")

	earned := testutil.ToFloat64(NotificationsQueuedTotal.WithLabelValues("coins_earned"))
	unlocked := testutil.ToFloat64(NotificationsQueuedTotal.WithLabelValues("manga_unlocked"))

	assert.Equal(t, float64(2), earned)
	assert.Equal(t, float64(1), unlocked)
}

func TestRecordProviderRequest(t *testing.T) {
	ProviderRequestsTotal.Reset()

	RecordProviderRequest("retrieve_session", "ok")
	RecordProviderRequest("retrieve_session", "timeout")

	ok := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("retrieve_session", "ok"))
	timeout := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("retrieve_session", "timeout"))

	assert.Equal(t, float64(1), ok)
	assert.Equal(t, float64(1), timeout)
}

func TestNotificationQueueLength(t *testing.T) {
	NotificationQueueLength.Set(10)
	assert.Equal(t, float64(10), testutil.ToFloat64(NotificationQueueLength))

	NotificationQueueLength.Set(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(NotificationQueueLength))
}

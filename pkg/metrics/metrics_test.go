package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordChat(t *testing.T) {
	before := testutil.ToFloat64(ChatsTotal.WithLabelValues("ok"))
	RecordChat("ok")
	require.Equal(t, before+1, testutil.ToFloat64(ChatsTotal.WithLabelValues("ok")))
}

func TestRecordSideEffectFailure(t *testing.T) {
	before := testutil.ToFloat64(SideEffectFailures.WithLabelValues("history_put"))
	RecordSideEffectFailure("history_put")
	require.Equal(t, before+1, testutil.ToFloat64(SideEffectFailures.WithLabelValues("history_put")))
}

func TestRecordRequest(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/", "OK"))
	RecordRequest("GET", "/", "OK", 0.01)
	require.Equal(t, before+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/", "OK")))
}

package coremetrics_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cosmos/lightcore/internal/coremetrics"
)

func TestMetricsServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := coremetrics.NewMetrics()
	m.SetHostHeight("chainA", 12)
	m.IncDeliveredMessages("chainA", "update_client", coremetrics.ResultSuccess)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	coremetrics.StartMetricsServer(ctx, zaptest.NewLogger(t), ln, m.Registry)

	resp, err := http.Get("http://" + ln.Addr().String() + "/lightcore/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `lightcore_chain_height{chain="chainA"} 12`)
	require.Contains(t, string(body), `lightcore_delivered_messages_total{chain="chainA",msg_type="update_client",result="success"} 1`)
}

package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pnl_prover/internal/journal"
	"pnl_prover/internal/models"
	"pnl_prover/internal/modules/health/service"
	prover "pnl_prover/internal/modules/prover/service"
)

func newServer(t *testing.T) (*httptest.Server, *service.State, *service.Feed) {
	t.Helper()
	state := service.NewState()
	feed := service.NewFeed(state)
	srv := httptest.NewServer(NewMux(state, feed))
	t.Cleanup(func() {
		feed.Close()
		srv.Close()
	})
	return srv, state, feed
}

func TestMux_Probes(t *testing.T) {
	srv, state, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/livez")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	state.SetReady(true)
	state.SetPrograms(4)
	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	require.NoError(t, sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ready"])
	assert.EqualValues(t, 4, body["programs"])
}

func TestMux_Metrics(t *testing.T) {
	srv, _, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFeed_BroadcastsReceipts(t *testing.T) {
	srv, state, feed := newServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/receipts"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return feed.Clients() == 1 }, time.Second, 10*time.Millisecond)

	pnl := float32(20)
	res := &prover.Result{
		Receipt: &models.Receipt{
			ID:              "r-1",
			Policy:          models.PolicyExact,
			Journal:         []byte{0, 0, 0xa0, 0x41},
			Proof:           []byte("proof"),
			ProgramIdentity: "abc",
			CreatedAt:       time.Unix(1_700_000_000, 0).UTC(),
		},
		Value: journal.Value{Accepted: true, PnL: &pnl},
	}
	feed.OnReceipt(context.Background(), res)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev service.FeedEvent
	require.NoError(t, sonic.Unmarshal(msg, &ev))
	assert.Equal(t, "r-1", ev.ID)
	assert.Equal(t, res.Receipt.ProofHash(), ev.ProofHash)
	require.NotNil(t, ev.PnL)
	assert.Equal(t, float32(20), *ev.PnL)

	assert.EqualValues(t, 1, state.Receipts())
	assert.Equal(t, int64(1_700_000_000), state.LastReceipt().Unix())
}

func TestFeed_ClientDisconnect(t *testing.T) {
	srv, _, feed := newServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/receipts"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return feed.Clients() == 1 }, time.Second, 10*time.Millisecond)

	_ = conn.Close()
	assert.Eventually(t, func() bool { return feed.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

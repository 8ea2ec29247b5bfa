package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrahex/engine/internal/cache"
	"github.com/terrahex/engine/internal/dispatcher"
	"github.com/terrahex/engine/internal/engine"
	"github.com/terrahex/engine/internal/handlers"
	"github.com/terrahex/engine/internal/hexgrid"
	"github.com/terrahex/engine/internal/position"
	"github.com/terrahex/engine/internal/store/memory"
	"github.com/terrahex/engine/pkg/core"
	"github.com/terrahex/engine/pkg/streaming"
)

type stubSource struct {
	fix core.PositionFix
}

func (s *stubSource) Current(context.Context) (core.PositionFix, error) {
	return s.fix, nil
}

func (s *stubSource) Watch(func(core.PositionFix), func(error)) (position.Subscription, error) {
	return stubSub{}, nil
}

type stubSub struct{}

func (stubSub) Cancel() {}

// testGateway wires a gateway over a real engine with an in-memory
// store and exposes it through httptest.
func testGateway(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	grid, err := hexgrid.NewGrid(hexgrid.DefaultResolution, 200)
	require.NoError(t, err)

	src := &stubSource{fix: core.PositionFix{
		Coordinate: core.Coordinate{Latitude: 52.52, Longitude: 13.405},
		Time:       time.Now(),
	}}
	eng, err := engine.NewService(context.Background(), memory.New(), grid, src, log, engine.Options{
		PlayerID:          "p1",
		StartingResources: core.ResourceInventory{Wood: 50, Iron: 30, Stone: 40},
		ZoneCount:         3,
		Seed:              7,
	})
	require.NoError(t, err)

	d, err := dispatcher.New(log)
	require.NoError(t, err)
	handlers.NewService(handlers.Dependencies{Engine: eng, Logger: log}).RegisterHandlers(d)

	gw := NewServer(Config{Listen: "127.0.0.1:0"}, Dependencies{
		Dispatcher: d,
		Engine:     eng,
		Snapshots:  cache.NewSnapshotCache(),
		Logger:     log,
	})

	srv := httptest.NewServer(http.HandlerFunc(gw.handleWS))
	t.Cleanup(srv.Close)
	return gw, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialClient(t *testing.T, srv *httptest.Server) *ws.Conn {
	t.Helper()
	conn, _, err := ws.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendCommand(t *testing.T, conn *ws.Conn, cmd streaming.CommandPayload) {
	t.Helper()
	raw, err := json.Marshal(cmd)
	require.NoError(t, err)
	env, err := json.Marshal(streaming.Envelope{Type: streaming.TypeCommand, Payload: raw})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(ws.TextMessage, env))
}

// readEnvelope reads messages until one of the wanted type arrives,
// skipping snapshot broadcasts.
func readEnvelope(t *testing.T, conn *ws.Conn, wantType string) streaming.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)

		var env streaming.Envelope
		require.NoError(t, json.Unmarshal(msg, &env))
		if env.Type == wantType {
			return env
		}
	}
}

func TestCommandRoundTrip(t *testing.T) {
	_, srv := testGateway(t)
	conn := dialClient(t, srv)

	sendCommand(t, conn, streaming.CommandPayload{Command: streaming.CmdRefreshPosition, ID: "1"})
	env := readEnvelope(t, conn, streaming.TypeCommandResult)

	var result streaming.CommandResultPayload
	require.NoError(t, json.Unmarshal(env.Payload, &result))
	assert.True(t, result.OK)
	assert.Equal(t, streaming.CmdRefreshPosition, result.Command)
	assert.Equal(t, "1", result.ID)

	sendCommand(t, conn, streaming.CommandPayload{Command: streaming.CmdConquer, ID: "2"})
	env = readEnvelope(t, conn, streaming.TypeCommandResult)
	require.NoError(t, json.Unmarshal(env.Payload, &result))
	assert.True(t, result.OK)
	assert.Equal(t, "2", result.ID)
}

func TestCommandFailureIsReported(t *testing.T) {
	_, srv := testGateway(t)
	conn := dialClient(t, srv)

	// Conquer before any position fix exists.
	sendCommand(t, conn, streaming.CommandPayload{Command: streaming.CmdConquer})
	env := readEnvelope(t, conn, streaming.TypeCommandResult)

	var result streaming.CommandResultPayload
	require.NoError(t, json.Unmarshal(env.Payload, &result))
	assert.False(t, result.OK)
	assert.NotEmpty(t, result.Error)
}

func TestUnknownCommand(t *testing.T) {
	_, srv := testGateway(t)
	conn := dialClient(t, srv)

	sendCommand(t, conn, streaming.CommandPayload{Command: "teleport"})
	env := readEnvelope(t, conn, streaming.TypeCommandResult)

	var result streaming.CommandResultPayload
	require.NoError(t, json.Unmarshal(env.Payload, &result))
	assert.False(t, result.OK)
	assert.Contains(t, result.Error, "unknown command")
}

func TestMalformedEnvelope(t *testing.T) {
	_, srv := testGateway(t)
	conn := dialClient(t, srv)

	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte("not json")))
	env := readEnvelope(t, conn, streaming.TypeError)

	var ep streaming.ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &ep))
	assert.Contains(t, ep.Message, "malformed envelope")
}

func TestCachedSnapshotSentOnConnect(t *testing.T) {
	gw, srv := testGateway(t)

	gw.pushSnapshot()
	_, ok := gw.deps.Snapshots.Get()
	require.True(t, ok)

	conn := dialClient(t, srv)
	env := readEnvelope(t, conn, streaming.TypeSnapshot)

	var snap engine.Snapshot
	require.NoError(t, json.Unmarshal(env.Payload, &snap))
	assert.Equal(t, "p1", snap.Player.ID)
}

func TestBroadcastReachesAllClients(t *testing.T) {
	gw, srv := testGateway(t)

	c1 := dialClient(t, srv)
	c2 := dialClient(t, srv)

	require.Eventually(t, func() bool { return gw.ClientCount() == 2 },
		time.Second, 10*time.Millisecond)

	gw.pushSnapshot()
	readEnvelope(t, c1, streaming.TypeSnapshot)
	readEnvelope(t, c2, streaming.TypeSnapshot)
}

func TestClientDisconnectUnregisters(t *testing.T) {
	gw, srv := testGateway(t)

	conn := dialClient(t, srv)
	require.Eventually(t, func() bool { return gw.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return gw.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)
}

package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/voicedesk/agent"
	"github.com/voicedesk/voicedesk/config"
	"github.com/voicedesk/voicedesk/internal/metrics"
	"github.com/voicedesk/voicedesk/llm"
	"github.com/voicedesk/voicedesk/router"
	"github.com/voicedesk/voicedesk/runtime"
	"github.com/voicedesk/voicedesk/types"
)

type deskStub struct {
	domain   types.Domain
	greeting string
}

func (d *deskStub) Domain() types.Domain { return d.domain }
func (d *deskStub) Name() string         { return string(d.domain) + " desk" }
func (d *deskStub) Instructions() string { return "stub desk" }
func (d *deskStub) Greeting() string     { return d.greeting }
func (d *deskStub) Tools() []agent.Tool  { return nil }

type routeAll struct{ to types.Domain }

func (r *routeAll) Classify(context.Context, string) (router.Decision, error) {
	return router.Decision{Domain: r.to}, nil
}

func newTestWorker(t *testing.T) *runtime.Worker {
	t.Helper()
	reg := agent.NewRegistry()
	reg.Register(types.DomainDispatcher, func() agent.Agent {
		return &deskStub{domain: types.DomainDispatcher, greeting: "Front desk, hello."}
	})
	reg.Register(types.DomainAirline, func() agent.Agent {
		return &deskStub{domain: types.DomainAirline, greeting: "Airline desk here."}
	})

	coordinator := agent.NewCoordinator(reg, nil, nil)
	rt := router.New(&routeAll{to: types.DomainAirline}, coordinator, nil, nil)
	planner := runtime.NewPlanner(llm.CompleteFunc(func(context.Context, llm.Request) (string, error) {
		return `{"reply": "Happy to help with that flight."}`, nil
	}), "test-model", nil)
	engine := runtime.NewEngine(planner, rt, coordinator, nil, nil)
	return runtime.NewWorker(engine, reg, nil, nil, "", nil, nil)
}

func newTestGateway(t *testing.T, cfg config.ServerConfig, gatherer prometheus.Gatherer) *httptest.Server {
	t.Helper()
	g := NewGateway(cfg, newTestWorker(t), gatherer, nil)
	srv := httptest.NewServer(g.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func readFrame(t *testing.T, ctx context.Context, ws *websocket.Conn) frame {
	t.Helper()
	_, data, err := ws.Read(ctx)
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func sendUtterance(t *testing.T, ctx context.Context, ws *websocket.Conn, text string) {
	t.Helper()
	data, err := json.Marshal(frame{Type: "utterance", Text: text})
	require.NoError(t, err)
	require.NoError(t, ws.Write(ctx, websocket.MessageText, data))
}

func TestHealthz(t *testing.T) {
	srv := newTestGateway(t, config.ServerConfig{}, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewCollector(reg)
	srv := newTestGateway(t, config.ServerConfig{}, reg)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "voicedesk_")
}

func TestMetricsDisabledWithoutGatherer(t *testing.T) {
	srv := newTestGateway(t, config.ServerConfig{}, nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionCall(t *testing.T) {
	srv := newTestGateway(t, config.ServerConfig{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/session"
	ws, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer ws.Close(websocket.StatusNormalClosure, "done")

	greeting := readFrame(t, ctx, ws)
	assert.Equal(t, "say", greeting.Type)
	assert.Equal(t, "Front desk, hello.", greeting.Text)

	sendUtterance(t, ctx, ws, "I want to book a flight")
	transfer := readFrame(t, ctx, ws)
	assert.Equal(t, "say", transfer.Type)
	assert.Contains(t, transfer.Text, "Switching you to our Airline team")

	sendUtterance(t, ctx, ws, "bye")
	farewell := readFrame(t, ctx, ws)
	assert.Equal(t, runtime.Farewell, farewell.Text)

	// server closes the call after the farewell
	_, _, err = ws.Read(ctx)
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
}

func TestSessionIgnoresNoiseFrames(t *testing.T) {
	srv := newTestGateway(t, config.ServerConfig{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/session"
	ws, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer ws.Close(websocket.StatusNormalClosure, "done")

	readFrame(t, ctx, ws) // greeting

	require.NoError(t, ws.Write(ctx, websocket.MessageText, []byte("not json")))
	require.NoError(t, ws.Write(ctx, websocket.MessageText, []byte(`{"type":"audio","clip":"x"}`)))
	sendUtterance(t, ctx, ws, "bye")

	farewell := readFrame(t, ctx, ws)
	assert.Equal(t, runtime.Farewell, farewell.Text)
}

func TestRateLimitSpeaksPacingNotice(t *testing.T) {
	srv := newTestGateway(t, config.ServerConfig{UtterancesPerMinute: 1}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/session"
	ws, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer ws.Close(websocket.StatusNormalClosure, "done")

	readFrame(t, ctx, ws) // greeting

	sendUtterance(t, ctx, ws, "first one gets through")
	first := readFrame(t, ctx, ws)
	assert.Contains(t, first.Text, "Switching you to our Airline team")

	sendUtterance(t, ctx, ws, "second one is too fast")
	second := readFrame(t, ctx, ws)
	assert.Equal(t, pacingNotice, second.Text)
}

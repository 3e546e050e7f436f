// Package transport exposes the concierge over a websocket gateway. One
// connection is one call: text utterances in, spoken replies and filler
// audio cues out. The gateway also serves liveness and Prometheus metrics
// endpoints and shuts down gracefully.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/voicedesk/voicedesk/config"
	"github.com/voicedesk/voicedesk/runtime"
	"github.com/voicedesk/voicedesk/session"
)

// Gateway is the HTTP surface: /session upgrades to a websocket call,
// /healthz reports liveness, /metrics exposes the Prometheus registry.
type Gateway struct {
	cfg      config.ServerConfig
	worker   *runtime.Worker
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	srv      *http.Server
}

// NewGateway wires the gateway. gatherer may be nil to disable /metrics.
func NewGateway(cfg config.ServerConfig, worker *runtime.Worker,
	gatherer prometheus.Gatherer, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gateway{
		cfg:      cfg,
		worker:   worker,
		gatherer: gatherer,
		logger:   logger.With(zap.String("component", "gateway")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/session", g.handleSession)
	mux.HandleFunc("/healthz", g.handleHealthz)
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	g.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		WriteTimeout: cfg.WriteTimeout,
	}
	return g
}

// Handler returns the gateway's HTTP handler, for tests and embedding.
func (g *Gateway) Handler() http.Handler { return g.srv.Handler }

// Run serves until ctx is cancelled, then drains connections within the
// configured shutdown timeout.
func (g *Gateway) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		g.logger.Info("gateway listening", zap.String("addr", g.cfg.Addr))
		if err := g.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		g.logger.Info("gateway shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), g.cfg.ShutdownTimeout)
		defer cancel()
		return g.srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (g *Gateway) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (g *Gateway) handleSession(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}

	sess := session.NewContext("")
	conn := newWSConn(ws, g.perCallLimiter(), g.logger)

	if err := g.worker.Run(r.Context(), sess, conn); err != nil {
		g.logger.Warn("session ended with error",
			zap.String("session_id", sess.ID), zap.Error(err))
		ws.Close(websocket.StatusInternalError, "session error")
		return
	}
	ws.Close(websocket.StatusNormalClosure, "call ended")
}

// perCallLimiter caps the caller's utterance rate. A burst of a few turns
// is fine; sustained flooding gets a pacing notice instead of service.
func (g *Gateway) perCallLimiter() *rate.Limiter {
	perMinute := g.cfg.UtterancesPerMinute
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := 5
	if perMinute < burst {
		burst = perMinute
	}
	return rate.NewLimiter(rate.Limit(perMinute)/60, burst)
}

const pacingNotice = "You're coming through faster than I can keep up. One moment, please."

// frame is the wire format. Callers send utterances; the gateway sends
// speech and, during slow turns, a filler audio cue.
type frame struct {
	Type string `json:"type"` // "utterance", "say", "audio"
	Text string `json:"text,omitempty"`
	Clip string `json:"clip,omitempty"`
}

// wsConn adapts a websocket to the worker's Conn, and doubles as the
// filler's Player. Writes are serialized by the worker's turn loop; the
// filler goroutine and the reply writer never overlap because the engine
// cancels the filler before the reply is produced, so a plain write guard
// is enough.
type wsConn struct {
	ws      *websocket.Conn
	limiter *rate.Limiter
	logger  *zap.Logger
}

func newWSConn(ws *websocket.Conn, limiter *rate.Limiter, logger *zap.Logger) *wsConn {
	return &wsConn{ws: ws, limiter: limiter, logger: logger}
}

// ReadUtterance blocks for the next utterance frame. Over-limit utterances
// are answered with a pacing notice and dropped.
func (c *wsConn) ReadUtterance(ctx context.Context) (string, error) {
	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			return "", asEOF(err)
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Warn("unparseable frame dropped", zap.Error(err))
			continue
		}
		if f.Type != "utterance" || f.Text == "" {
			continue
		}

		if !c.limiter.Allow() {
			if err := c.write(ctx, frame{Type: "say", Text: pacingNotice}); err != nil {
				return "", asEOF(err)
			}
			continue
		}
		return f.Text, nil
	}
}

// Speak delivers one reply frame.
func (c *wsConn) Speak(ctx context.Context, text string) error {
	return c.write(ctx, frame{Type: "say", Text: text})
}

// Play implements the filler's Player: the client is told which clip to
// start, and stops it when the next say frame arrives.
func (c *wsConn) Play(ctx context.Context, name string) {
	if err := c.write(ctx, frame{Type: "audio", Clip: name}); err != nil {
		c.logger.Debug("filler cue not delivered", zap.Error(err))
	}
}

func (c *wsConn) write(ctx context.Context, f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return c.ws.Write(ctx, websocket.MessageText, data)
}

// asEOF normalizes a peer disconnect into io.EOF so the worker treats it as
// a clean hangup.
func asEOF(err error) error {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return io.EOF
	}
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	return err
}

package runtime

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/voicedesk/voicedesk/agent"
	"github.com/voicedesk/voicedesk/session"
	"github.com/voicedesk/voicedesk/types"
)

// Conn is one caller's line: utterances in, speech out. The transport owns
// the wire format; the worker only sees text.
type Conn interface {
	// ReadUtterance blocks for the caller's next utterance. io.EOF means
	// the caller hung up.
	ReadUtterance(ctx context.Context) (string, error)

	// Speak delivers one reply to the caller.
	Speak(ctx context.Context, text string) error
}

// SessionMetrics receives session lifecycle counters. Satisfied by the
// metrics collector; a nil value disables reporting.
type SessionMetrics interface {
	SessionStarted()
	SessionEnded()
}

// Worker runs one session end to end: it seats the caller with the
// dispatcher, speaks the greeting, loops turns through the engine, and
// journals the conversation at disconnect.
type Worker struct {
	engine   *Engine
	registry *agent.Registry
	journal  *session.Journal
	filler   *Filler
	greeting string
	metrics  SessionMetrics
	logger   *zap.Logger
}

// NewWorker wires a worker. journal, filler and metrics may be nil.
func NewWorker(engine *Engine, registry *agent.Registry, journal *session.Journal,
	filler *Filler, greeting string, metrics SessionMetrics, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		engine:   engine,
		registry: registry,
		journal:  journal,
		filler:   filler,
		greeting: greeting,
		metrics:  metrics,
		logger:   logger.With(zap.String("component", "worker")),
	}
}

// Run drives the session until the caller hangs up, says goodbye, or ctx is
// cancelled. It returns nil on a clean close.
func (w *Worker) Run(ctx context.Context, sess *session.Context, conn Conn) error {
	dispatcher, err := w.registry.New(types.DomainDispatcher)
	if err != nil {
		return types.NewError(types.ErrInternal, "no dispatcher registered").WithCause(err)
	}
	sess.SetActiveAgent(dispatcher)

	if w.metrics != nil {
		w.metrics.SessionStarted()
	}
	w.logger.Info("session started", zap.String("session_id", sess.ID))

	defer func() {
		sess.CancelFiller()
		if w.journal != nil {
			w.journal.Write(sess)
		}
		if w.metrics != nil {
			w.metrics.SessionEnded()
		}
		m := sess.SessionMetrics()
		w.logger.Info("session ended",
			zap.String("session_id", sess.ID),
			zap.Int("turns", m.Turns),
			zap.Int("tool_calls", m.ToolCalls),
			zap.Int("handoffs", m.Handoffs))
	}()

	greeting := w.greeting
	if greeting == "" {
		greeting = dispatcher.Greeting()
	}
	sess.AppendAssistant(greeting)
	if err := conn.Speak(ctx, greeting); err != nil {
		return err
	}

	for {
		utterance, err := conn.ReadUtterance(ctx)
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		if utterance == "" {
			continue
		}

		// thinking audio while the turn is planned; the engine cancels it
		// the moment the reply is ready
		if player, ok := conn.(Player); ok {
			w.filler.Start(sess, player)
		}

		reply := w.engine.HandleTurn(ctx, sess, utterance)
		if err := conn.Speak(ctx, reply); err != nil {
			return err
		}

		if sess.Ending() {
			return nil
		}
	}
}

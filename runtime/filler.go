package runtime

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voicedesk/voicedesk/config"
	"github.com/voicedesk/voicedesk/session"
)

// Player plays one pre-recorded clip to the caller. Play blocks until the
// clip finishes or the context is cancelled.
type Player interface {
	Play(ctx context.Context, name string)
}

// PlayerFunc adapts a function to the Player interface.
type PlayerFunc func(ctx context.Context, name string)

// Play implements Player.
func (f PlayerFunc) Play(ctx context.Context, name string) { f(ctx, name) }

// Filler covers model latency with a short pre-recorded thinking clip. The
// clip starts only after a delay, so fast turns stay silent, and is
// cancelled through the session the moment the real reply is ready.
type Filler struct {
	cfg    config.FillerConfig
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewFiller creates a filler with the clip directory and delay from cfg.
func NewFiller(cfg config.FillerConfig, logger *zap.Logger) *Filler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filler{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "filler")),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (f *Filler) pick() string {
	f.mu.Lock()
	n := f.rng.Intn(f.cfg.Count)
	f.mu.Unlock()
	return fmt.Sprintf("%s/filler_%02d.mp3", f.cfg.Dir, n)
}

// Start arms the filler for the turn in progress, playing through the
// caller's player. The previous handle, if any, is cancelled first; at most
// one clip is armed per session.
func (f *Filler) Start(sess *session.Context, player Player) {
	if f == nil || player == nil || f.cfg.Count <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess.SetFillerCancel(cancel)

	name := f.pick()
	go func() {
		t := time.NewTimer(f.cfg.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		f.logger.Debug("playing filler", zap.String("session_id", sess.ID), zap.String("clip", name))
		player.Play(ctx, name)
	}()
}

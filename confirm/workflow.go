package confirm

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voicedesk/voicedesk/session"
	"github.com/voicedesk/voicedesk/types"
)

// Stage builds a pending action from the payload and installs it on the
// session. A newer preview always replaces an older one regardless of kind;
// replaced reports whether that happened so the caller can mention it.
func Stage(sess *session.Context, kind types.ActionKind, payload any, summary string) (*types.PendingAction, bool, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, false, types.NewError(types.ErrInternal,
			fmt.Sprintf("encoding %s preview failed", kind)).WithCause(err)
	}

	p := &types.PendingAction{
		ID:        "PRV-" + uuid.NewString(),
		Kind:      kind,
		Payload:   raw,
		Summary:   summary,
		Status:    types.StatusPending,
		CreatedAt: time.Now(),
	}
	replaced := sess.SetPending(p)
	return p, replaced, nil
}

// Take consumes the pending action of the given kind, marking it confirmed.
// With no pending action, or one of a different kind, it returns a
// NO_PENDING_ACTION error; executors speak that back and mutate nothing.
func Take(sess *session.Context, kind types.ActionKind) (*types.PendingAction, error) {
	p, ok := sess.TakePending(kind)
	if !ok {
		return nil, types.NewError(types.ErrNoPending,
			fmt.Sprintf("there is no %s waiting for confirmation", kind))
	}
	p.Status = types.StatusConfirmed
	return p, nil
}

// Cancel discards the pending action of the given kind, marking it
// cancelled. Cancelling when nothing matches returns NO_PENDING_ACTION.
func Cancel(sess *session.Context, kind types.ActionKind) (*types.PendingAction, error) {
	p, ok := sess.TakePending(kind)
	if !ok {
		return nil, types.NewError(types.ErrNoPending,
			fmt.Sprintf("there is no %s to cancel", kind))
	}
	p.Status = types.StatusCancelled
	return p, nil
}

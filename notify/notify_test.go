package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("desk@example.com", "ada@example.com", "Booking Confirmed", "Your table is booked.")

	assert.Contains(t, msg, "From: desk@example.com\r\n")
	assert.Contains(t, msg, "To: ada@example.com\r\n")
	assert.Contains(t, msg, "Subject: Booking Confirmed\r\n")
	assert.Contains(t, msg, "\r\n\r\nYour table is booked.\r\n")
}

func TestLogNotifierNeverFails(t *testing.T) {
	n := NewLog(nil)
	assert.NoError(t, n.Send(context.Background(), "ada@example.com", "subject", "body"))
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}

	_, ok := r.Last()
	assert.False(t, ok)

	require.NoError(t, r.Send(context.Background(), "a@example.com", "s1", "b1"))
	require.NoError(t, r.Send(context.Background(), "b@example.com", "s2", "b2"))

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "b@example.com", last.To)
	assert.Len(t, r.Sent, 2)

	r.Err = errors.New("smtp down")
	assert.Error(t, r.Send(context.Background(), "c@example.com", "s3", "b3"))
	assert.Len(t, r.Sent, 2)
}

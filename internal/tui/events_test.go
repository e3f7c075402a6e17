package tui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diogo/tacticscoach/internal/conversation"
	"github.com/diogo/tacticscoach/internal/models"
)

func TestEventBoxKeepsNewest(t *testing.T) {
	box := newEventBox()
	box.put(conversation.Event{Seq: 1, State: models.TurnAwaitingFirstByte})
	box.put(conversation.Event{Seq: 2, State: models.TurnStreaming})

	msg := box.wait()()
	ev := conversation.Event(msg.(eventMsg))
	assert.Equal(t, uint64(2), ev.Seq)
	assert.Len(t, box.ch, 0)
}

func TestEventBoxMergesFlushAndErr(t *testing.T) {
	box := newEventBox()
	boom := errors.New("boom")
	box.put(conversation.Event{Seq: 3, State: models.TurnFailed, Flush: true, Err: boom})
	// An older event arriving late never replaces a newer one.
	box.put(conversation.Event{Seq: 2, State: models.TurnStreaming})

	ev := conversation.Event((box.wait()()).(eventMsg))
	assert.Equal(t, uint64(3), ev.Seq)
	assert.Equal(t, models.TurnFailed, ev.State)
	assert.True(t, ev.Flush)
	assert.ErrorIs(t, ev.Err, boom)
}

func TestEventBoxFlushSurvivesCoalescing(t *testing.T) {
	box := newEventBox()
	box.put(conversation.Event{Seq: 1, Flush: true})
	box.put(conversation.Event{Seq: 2})

	ev := conversation.Event((box.wait()()).(eventMsg))
	assert.Equal(t, uint64(2), ev.Seq)
	assert.True(t, ev.Flush)
}

func TestEventBoxClose(t *testing.T) {
	box := newEventBox()
	box.close()
	box.close()
	assert.Nil(t, box.wait()())
}

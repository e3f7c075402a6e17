package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/tacticscoach/internal/conversation"
)

// eventBox hands controller events to the update loop. It holds at most one
// event: every event carries the whole transcript, so a newer one replaces an
// unread older one. put never blocks, which matters because the controller
// also publishes from inside Update (reset, abort).
type eventBox struct {
	ch        chan conversation.Event
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
}

func newEventBox() *eventBox {
	return &eventBox{
		ch:   make(chan conversation.Event, 1),
		done: make(chan struct{}),
	}
}

// put stores ev, merging it with any unread event
func (b *eventBox) put(ev conversation.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case old := <-b.ch:
		if old.Seq > ev.Seq {
			ev, old = old, ev
		}
		ev.Flush = ev.Flush || old.Flush
		if ev.Err == nil {
			ev.Err = old.Err
		}
	default:
	}
	b.ch <- ev
}

// wait returns a command delivering the next event
func (b *eventBox) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-b.ch:
			return eventMsg(ev)
		case <-b.done:
			return nil
		}
	}
}

func (b *eventBox) close() {
	b.closeOnce.Do(func() { close(b.done) })
}

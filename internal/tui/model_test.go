package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/tacticscoach/internal/api"
	"github.com/diogo/tacticscoach/internal/conversation"
	apierrors "github.com/diogo/tacticscoach/internal/errors"
	"github.com/diogo/tacticscoach/internal/models"
	"github.com/diogo/tacticscoach/internal/render"
)

func testOptions() Options {
	return Options{
		BaseURL:      "http://localhost:5000",
		ShowThinking: true,
		MaxFPS:       30,
		Markdown:     render.DefaultOptions().WithStyle("notty"),
		Clipboard:    func(string) error { return nil },
	}
}

// newTestModel returns a sized model over a controller backed by client
func newTestModel(t *testing.T, client *api.MockClient, opts Options) (Model, *conversation.Controller) {
	t.Helper()
	var asker conversation.Asker
	if client != nil {
		asker = client
	}
	ctrl := conversation.New(asker)
	m := NewChatModel(ctrl, opts)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model), ctrl
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	case "ctrl+y":
		return tea.KeyMsg{Type: tea.KeyCtrlY}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain applies the event waiting in the model's mailbox
func drain(t *testing.T, m Model) Model {
	t.Helper()
	select {
	case ev := <-m.box.ch:
		m, _ = update(t, m, eventMsg(ev))
	default:
		t.Fatal("no event waiting")
	}
	return m
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func workedExample() []models.Snapshot {
	return []models.Snapshot{
		{Thinking: "Analyzing the low block", UpdateType: "thinking"},
		{Thinking: "Analyzing the low block", Answer: "Overload", UpdateType: "answer"},
		{Thinking: "Analyzing the low block", Answer: "Overload the flanks", ConfidenceScore: models.IntPtr(82), IsFinal: true, UpdateType: "final"},
	}
}

func TestNewChatModel(t *testing.T) {
	m, _ := newTestModel(t, nil, testOptions())

	require.Len(t, m.messages, 1)
	assert.Equal(t, models.GreetingText, m.messages[0].Content)
	assert.Equal(t, models.TurnIdle, m.state)
	assert.True(t, m.thinkingOpen)
	assert.True(t, m.ready)
	assert.Equal(t, 96, m.viewport.Width)
	assert.NotNil(t, m.Init())
}

func TestNewChatModelDefaults(t *testing.T) {
	m := NewChatModel(conversation.New(nil), Options{})
	assert.NotNil(t, m.opts.Clipboard)
	assert.NotNil(t, m.logger)
	assert.False(t, m.thinkingOpen)
	assert.Contains(t, m.View(), "Warming up")
}

func TestModelStreamsTurn(t *testing.T) {
	client := &api.MockClient{Snapshots: workedExample()}
	m, ctrl := newTestModel(t, client, testOptions())

	m.textarea.SetValue("How do I break a low block?")
	m, cmd := update(t, m, key("enter"))
	require.NotNil(t, cmd)
	assert.Empty(t, m.textarea.Value())

	done := m.sendMessage("How do I break a low block?")()
	assert.Equal(t, turnDoneMsg{}, done)

	// Events coalesce in the mailbox, so the final transcript is waiting.
	m = drain(t, m)
	assert.Equal(t, models.TurnComplete, m.state)
	require.Len(t, m.messages, 3)
	assert.Equal(t, "Overload the flanks", m.messages[2].Content)
	assert.Equal(t, 82, m.messages[2].Confidence())
	assert.Equal(t, ctrl.Messages(), m.messages)

	view := m.viewport.View()
	assert.Contains(t, view, "Overload the flanks")
	assert.Contains(t, view, "Analyzing the low block")
	assert.Contains(t, view, "82%")
	assert.Equal(t, []string{"How do I break a low block?"}, client.Prompts())
}

func TestModelDropsStaleEvents(t *testing.T) {
	m, _ := newTestModel(t, nil, testOptions())

	newer := conversation.Event{Seq: 5, State: models.TurnComplete, Messages: []models.ChatMessage{
		models.Greeting(), {Role: models.RoleUser, Content: "q"}, {Role: models.RoleAssistant, Content: "new"},
	}}
	older := conversation.Event{Seq: 3, State: models.TurnStreaming, Messages: []models.ChatMessage{
		models.Greeting(), {Role: models.RoleUser, Content: "q"}, {Role: models.RoleAssistant, Content: "old"},
	}}

	m, _ = update(t, m, eventMsg(newer))
	m, _ = update(t, m, eventMsg(older))

	assert.Equal(t, uint64(5), m.lastSeq)
	assert.Equal(t, "new", m.messages[2].Content)
	assert.Equal(t, models.TurnComplete, m.state)
}

func TestModelThrottlesStreamedFrames(t *testing.T) {
	opts := testOptions()
	opts.MaxFPS = 1
	m, _ := newTestModel(t, nil, opts)

	streaming := func(seq uint64, answer string, flush bool) conversation.Event {
		return conversation.Event{Seq: seq, State: models.TurnStreaming, Flush: flush, Messages: []models.ChatMessage{
			models.Greeting(), {Role: models.RoleUser, Content: "q"}, {Role: models.RoleAssistant, Content: answer},
		}}
	}

	// The first frame uses the burst.
	m, _ = update(t, m, eventMsg(streaming(1, "a", false)))
	assert.Equal(t, "a", m.messages[2].Content)

	// The second is held back and a frame is scheduled.
	m, cmd := update(t, m, eventMsg(streaming(2, "ab", false)))
	assert.Equal(t, "a", m.messages[2].Content)
	require.NotNil(t, m.pending)
	assert.True(t, m.frameScheduled)
	assert.NotNil(t, cmd)

	// A third replaces the pending one without scheduling another frame.
	m, _ = update(t, m, eventMsg(streaming(3, "abc", false)))
	assert.Equal(t, uint64(3), m.pending.Seq)

	m, _ = update(t, m, frameMsg{})
	assert.Equal(t, "abc", m.messages[2].Content)
	assert.Nil(t, m.pending)
	assert.False(t, m.frameScheduled)

	// Flush frames bypass the limiter.
	m, _ = update(t, m, eventMsg(streaming(4, "abcd", true)))
	assert.Equal(t, "abcd", m.messages[2].Content)

	// So do terminal ones.
	final := streaming(5, "abcde", false)
	final.State = models.TurnComplete
	m, _ = update(t, m, eventMsg(final))
	assert.Equal(t, "abcde", m.messages[2].Content)
	assert.Equal(t, models.TurnComplete, m.state)
}

func TestModelFailedTurn(t *testing.T) {
	boom := &apierrors.NetworkError{Operation: "ask", Err: errors.New("connection refused")}
	client := &api.MockClient{AskErr: boom}
	m, _ := newTestModel(t, client, testOptions())

	done := m.sendMessage("press?")()
	m = drain(t, m)
	assert.Equal(t, models.TurnFailed, m.state)
	assert.Equal(t, models.ErrorReplyText, m.messages[2].Content)
	assert.Error(t, m.err)

	m, _ = update(t, m, done)
	assert.ErrorIs(t, m.err, boom)
	assert.Contains(t, m.View(), "coach ping")
}

func TestModelTurnDone(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantErr    bool
		wantNotice bool
	}{
		{"success", nil, false, false},
		{"aborted", context.Canceled, false, false},
		{"in flight", apierrors.ErrTurnInFlight, false, true},
		{"failure", errors.New("boom"), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t, nil, testOptions())
			m, _ = update(t, m, turnDoneMsg{err: tt.err})
			assert.Equal(t, tt.wantErr, m.err != nil)
			assert.Equal(t, tt.wantNotice, m.notice != "")
		})
	}
}

func TestModelEnterWhileInFlight(t *testing.T) {
	m, ctrl := newTestModel(t, nil, testOptions())
	_, err := ctrl.Submit("first")
	require.NoError(t, err)

	m.textarea.SetValue("second")
	m, cmd := update(t, m, key("enter"))
	assert.Nil(t, cmd)
	assert.Contains(t, m.notice, "still answering")
	assert.Equal(t, "second", m.textarea.Value())
}

func TestModelEnterIgnoresBlankInput(t *testing.T) {
	m, _ := newTestModel(t, nil, testOptions())
	m.textarea.SetValue("   ")
	_, cmd := update(t, m, key("enter"))
	assert.Nil(t, cmd)
}

func TestModelQuitCommands(t *testing.T) {
	for _, input := range []string{"exit", "quit", "/exit", "/quit", "QUIT"} {
		t.Run(input, func(t *testing.T) {
			m, _ := newTestModel(t, nil, testOptions())
			m.textarea.SetValue(input)
			m, cmd := update(t, m, key("enter"))
			assert.True(t, isQuit(cmd))
			assert.True(t, m.quitting)
			assert.Empty(t, m.View())
		})
	}
}

func TestModelEscape(t *testing.T) {
	t.Run("quits when idle", func(t *testing.T) {
		m, _ := newTestModel(t, nil, testOptions())
		_, cmd := update(t, m, key("esc"))
		assert.True(t, isQuit(cmd))
	})

	t.Run("aborts the running turn", func(t *testing.T) {
		client := &api.MockClient{Snapshots: workedExample()[:1], Block: true}
		m, ctrl := newTestModel(t, client, testOptions())

		result := make(chan tea.Msg, 1)
		go func() { result <- m.sendMessage("q")() }()
		require.Eventually(t, func() bool { return ctrl.State() == models.TurnStreaming }, time.Second, time.Millisecond)

		m, cmd := update(t, m, key("esc"))
		assert.Nil(t, cmd)
		assert.False(t, m.quitting)

		assert.Equal(t, turnDoneMsg{err: context.Canceled}, <-result)
		assert.Equal(t, models.TurnAborted, ctrl.State())
	})
}

func TestModelCtrlCQuits(t *testing.T) {
	m, _ := newTestModel(t, nil, testOptions())
	_, cmd := update(t, m, key("ctrl+c"))
	assert.True(t, isQuit(cmd))

	// The mailbox stops delivering once closed.
	assert.Nil(t, m.box.wait()())
}

func TestModelReset(t *testing.T) {
	for _, trigger := range []string{"ctrl+r", "/reset"} {
		t.Run(trigger, func(t *testing.T) {
			client := &api.MockClient{Snapshots: workedExample()}
			m, ctrl := newTestModel(t, client, testOptions())
			m.sendMessage("q")()
			m = drain(t, m)
			require.Len(t, m.messages, 3)
			m.thinkingOpen = false
			m.err = errors.New("old")

			if trigger == "/reset" {
				m.textarea.SetValue(trigger)
				m, _ = update(t, m, key("enter"))
				assert.Empty(t, m.textarea.Value())
			} else {
				m, _ = update(t, m, key(trigger))
			}

			require.Len(t, m.messages, 1)
			assert.Equal(t, models.GreetingText, m.messages[0].Content)
			assert.Equal(t, models.TurnIdle, ctrl.State())
			assert.NoError(t, m.err)
			assert.True(t, m.thinkingOpen)
		})
	}
}

func TestModelToggleThinking(t *testing.T) {
	client := &api.MockClient{Snapshots: workedExample()}
	m, _ := newTestModel(t, client, testOptions())
	m.sendMessage("q")()
	m = drain(t, m)

	assert.Contains(t, m.viewport.View(), "Analyzing the low block")

	m, _ = update(t, m, key("ctrl+t"))
	assert.False(t, m.thinkingOpen)
	assert.NotContains(t, m.viewport.View(), "Analyzing the low block")
	assert.Contains(t, m.viewport.View(), "reasoning hidden")

	m, _ = update(t, m, key("ctrl+t"))
	assert.True(t, m.thinkingOpen)
	assert.Contains(t, m.viewport.View(), "Analyzing the low block")
}

func TestModelCopyAnswer(t *testing.T) {
	var copied string
	opts := testOptions()
	opts.Clipboard = func(s string) error {
		copied = s
		return nil
	}

	client := &api.MockClient{Snapshots: workedExample()}
	m, _ := newTestModel(t, client, opts)
	m.sendMessage("q")()
	m = drain(t, m)

	m, _ = update(t, m, key("ctrl+y"))
	assert.Equal(t, "Overload the flanks", copied)
	assert.Equal(t, "Answer copied to clipboard", m.notice)
}

func TestModelCopyAnswerFailure(t *testing.T) {
	opts := testOptions()
	opts.Clipboard = func(string) error { return errors.New("no clipboard") }
	m, _ := newTestModel(t, nil, opts)

	m, _ = update(t, m, key("ctrl+y"))
	assert.Equal(t, "Copy failed: no clipboard", m.notice)
}

func TestModelView(t *testing.T) {
	m, ctrl := newTestModel(t, nil, testOptions())

	view := m.View()
	assert.Contains(t, view, "Tactics Coach")
	assert.Contains(t, view, "http://localhost:5000")
	assert.Contains(t, view, "Enter")
	assert.Contains(t, view, "You")

	_, err := ctrl.Submit("q")
	require.NoError(t, err)
	m.state = ctrl.State()
	assert.Contains(t, m.View(), "studying the pitch")

	m.state = models.TurnStreaming
	assert.Contains(t, m.View(), "answering")
}

func TestLastAssistant(t *testing.T) {
	assert.Equal(t, -1, lastAssistant(nil))
	assert.Equal(t, 2, lastAssistant([]models.ChatMessage{
		models.Greeting(), {Role: models.RoleUser}, {Role: models.RoleAssistant}, {Role: models.RoleUser},
	}))
}

func TestModelAnimationFollowsTurnState(t *testing.T) {
	m, _ := newTestModel(t, nil, testOptions())

	awaiting := conversation.Event{Seq: 1, State: models.TurnAwaitingFirstByte, Flush: true, Messages: []models.ChatMessage{
		models.Greeting(), {Role: models.RoleUser, Content: "q"}, {Role: models.RoleAssistant},
	}}
	streaming := awaiting
	streaming.Seq = 2
	streaming.State = models.TurnStreaming

	// A tick that lands before the turn's first event ends the loop.
	m, cmd := update(t, m, animationTickMsg(time.Now()))
	assert.Nil(t, cmd)
	assert.False(t, m.animating)

	// The turn going in flight starts it again.
	m, _ = update(t, m, eventMsg(awaiting))
	assert.True(t, m.animating)
	assert.Equal(t, 0, m.animationFrame)

	// Further in-flight events do not start a second loop.
	m, _ = update(t, m, eventMsg(streaming))
	assert.True(t, m.animating)
	assert.Nil(t, m.apply(streaming))

	m, cmd = update(t, m, animationTickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, m.animationFrame)

	done := streaming
	done.Seq = 3
	done.State = models.TurnComplete
	m, _ = update(t, m, eventMsg(done))
	m, cmd = update(t, m, animationTickMsg(time.Now()))
	assert.Nil(t, cmd)
	assert.False(t, m.animating)
}

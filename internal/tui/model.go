package tui

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/diogo/tacticscoach/internal/conversation"
	"github.com/diogo/tacticscoach/internal/errors"
	"github.com/diogo/tacticscoach/internal/models"
	"github.com/diogo/tacticscoach/internal/render"
)

// Options configures the chat screen
type Options struct {
	BaseURL      string
	ShowThinking bool
	MaxFPS       int
	Markdown     render.Options
	// Clipboard copies text. Defaults to the system clipboard.
	Clipboard func(string) error
	Logger    *zap.Logger
}

// eventMsg carries a controller event into the update loop
type eventMsg conversation.Event

// turnDoneMsg is sent when Ask returns
type turnDoneMsg struct {
	err error
}

// frameMsg fires when the throttle allows the next streamed frame
type frameMsg struct{}

// animationTickMsg drives the waiting animation
type animationTickMsg time.Time

// Model represents the chat TUI state
type Model struct {
	ctrl   *conversation.Controller
	opts   Options
	logger *zap.Logger

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	box      *eventBox
	throttle *render.Throttle

	// Last applied controller state
	messages []models.ChatMessage
	state    models.TurnState
	lastSeq  uint64

	// Newest event held back by the throttle
	pending        *conversation.Event
	frameScheduled bool

	thinkingOpen bool
	notice       string
	err          error

	width          int
	height         int
	ready          bool
	quitting       bool
	animating      bool
	animationFrame int
}

// NewChatModel creates the chat screen over a conversation controller.
// It subscribes to the controller, so each controller should back one model.
func NewChatModel(ctrl *conversation.Controller, opts Options) Model {
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ta := textarea.New()
	ta.Placeholder = "Ask about formations, pressing, set pieces..."
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetWidth(60)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = loadingStyle

	box := newEventBox()
	ctrl.Subscribe(box.put)

	return Model{
		ctrl:         ctrl,
		opts:         opts,
		logger:       opts.Logger,
		textarea:     ta,
		spinner:      sp,
		box:          box,
		throttle:     render.NewThrottle(opts.MaxFPS),
		messages:     ctrl.Messages(),
		state:        ctrl.State(),
		thinkingOpen: opts.ShowThinking,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.box.wait(),
	)
}

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

func frameAfter(d time.Duration) tea.Cmd {
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
		cmds  []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 6
		statusHeight := 1
		padding := 2

		viewportHeight := msg.Height - headerHeight - inputHeight - statusHeight - padding
		if viewportHeight < 5 {
			viewportHeight = 5
		}

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, viewportHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = viewportHeight
		}
		m.textarea.SetWidth(msg.Width - 6)
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.ctrl.Abort()
			return m.quit()

		case "esc":
			if m.ctrl.Abort() {
				return m, nil
			}
			return m.quit()

		case "ctrl+r":
			return m.reset()

		case "ctrl+t":
			m.thinkingOpen = !m.thinkingOpen
			m.updateViewport()
			return m, nil

		case "ctrl+y":
			return m.copyAnswer()

		case "enter":
			input := strings.TrimSpace(m.textarea.Value())
			switch strings.ToLower(input) {
			case "":
				return m, nil
			case "exit", "quit", "/exit", "/quit":
				return m.quit()
			case "/reset":
				m.textarea.Reset()
				return m.reset()
			}

			if m.ctrl.State().InFlight() {
				m.notice = "The coach is still answering. Press Esc to stop."
				return m, nil
			}

			m.textarea.Reset()
			m.err = nil
			m.notice = ""
			m.thinkingOpen = m.opts.ShowThinking
			return m, m.sendMessage(input)
		}

	case eventMsg:
		cmds = append(cmds, m.box.wait())
		ev := conversation.Event(msg)
		if ev.Seq <= m.lastSeq {
			break
		}
		m.lastSeq = ev.Seq
		if m.throttle.Ready(ev.Flush || ev.State.Terminal() || ev.State == models.TurnIdle) {
			m.pending = nil
			cmds = append(cmds, m.apply(ev))
		} else {
			m.pending = &ev
			if !m.frameScheduled {
				m.frameScheduled = true
				cmds = append(cmds, frameAfter(m.throttle.Delay()))
			}
		}
		return m, tea.Batch(cmds...)

	case frameMsg:
		m.frameScheduled = false
		if m.pending != nil {
			m.throttle.Ready(true)
			ev := *m.pending
			m.pending = nil
			return m, m.apply(ev)
		}
		return m, nil

	case turnDoneMsg:
		if msg.err != nil {
			switch {
			case stderrors.Is(msg.err, context.Canceled):
			case stderrors.Is(msg.err, errors.ErrTurnInFlight):
				m.notice = "The coach is still answering. Press Esc to stop."
			default:
				m.err = msg.err
			}
		}
		return m, nil

	case animationTickMsg:
		if m.state.InFlight() {
			m.animationFrame++
			return m, animationTick()
		}
		m.animating = false
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if _, isKey := msg.(tea.KeyMsg); isKey {
		m.textarea, taCmd = m.textarea.Update(msg)
	}
	m.viewport, vpCmd = m.viewport.Update(msg)

	cmds = append(cmds, taCmd, vpCmd)
	return m, tea.Batch(cmds...)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.box.close()
	return m, tea.Quit
}

func (m Model) reset() (tea.Model, tea.Cmd) {
	m.ctrl.Reset()
	m.throttle.Reset()
	m.pending = nil
	m.messages = m.ctrl.Messages()
	m.state = m.ctrl.State()
	m.err = nil
	m.notice = ""
	m.thinkingOpen = m.opts.ShowThinking
	m.updateViewport()
	return m, nil
}

func (m Model) copyAnswer() (tea.Model, tea.Cmd) {
	answer := m.ctrl.LastAnswer()
	if answer == "" {
		m.notice = "Nothing to copy yet"
		return m, nil
	}
	if err := m.opts.Clipboard(answer); err != nil {
		m.logger.Warn("clipboard copy failed", zap.Error(err))
		m.notice = fmt.Sprintf("Copy failed: %v", err)
		return m, nil
	}
	m.notice = "Answer copied to clipboard"
	return m, nil
}

// apply draws a controller event. It returns the animation tick when a
// turn goes in flight and no tick loop is running.
func (m *Model) apply(ev conversation.Event) tea.Cmd {
	m.messages = ev.Messages
	m.state = ev.State
	if ev.State == models.TurnFailed && ev.Err != nil {
		m.err = ev.Err
	}
	m.updateViewport()

	if ev.State.InFlight() && !m.animating {
		m.animating = true
		m.animationFrame = 0
		return animationTick()
	}
	return nil
}

// sendMessage runs one turn on the controller. Progress arrives as events.
func (m Model) sendMessage(prompt string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return turnDoneMsg{err: ctrl.Ask(context.Background(), prompt)}
	}
}

// View renders the model
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return loadingStyle.Render("  Warming up...")
	}

	var sections []string
	contentWidth := m.width - 4

	// Header
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("⚽ Tactics Coach"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.opts.BaseURL),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(headerContent))

	// Messages
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(m.viewport.View()))

	// Input
	var inputContent string
	if m.state.InFlight() {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.notice != "" {
		sections = append(sections, noticeStyle.Render("  "+m.notice))
	}
	if m.err != nil {
		sections = append(sections, FormatError(m.err, m.opts.BaseURL))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderLoadingAnimation() string {
	barChars := []string{"█", "█", "█", "█", "▓", "▒", "░"}
	frame := m.animationFrame

	var bar strings.Builder
	for i := 0; i < 16; i++ {
		color := loadingColors[(i+frame)%len(loadingColors)]
		bar.WriteString(lipgloss.NewStyle().Foreground(color).Render(barChars[(i+frame/2)%len(barChars)]))
	}

	label := "The coach is studying the pitch"
	if m.state == models.TurnStreaming {
		label = "The coach is answering"
	}

	return fmt.Sprintf("%s %s %s  %s",
		m.spinner.View(),
		bar.String(),
		lipgloss.NewStyle().Foreground(colorText).Render(label),
		hintStyle.Render("esc to stop"),
	)
}

func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Esc", "Stop/Quit"},
		{"^T", "Thinking"},
		{"^Y", "Copy"},
		{"^R", "Reset"},
		{"↑↓", "Scroll"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		))
	}

	bar := strings.Join(items, "  │  ")
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// updateViewport redraws the transcript into the viewport
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	bubbleWidth := m.viewport.Width - 8
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}
	mdOpts := m.opts.Markdown.WithWidth(bubbleWidth - 4)
	latest := lastAssistant(m.messages)

	var content strings.Builder
	for i, msg := range m.messages {
		if msg.Role == models.RoleUser {
			content.WriteString(userLabelStyle.Render("You"))
			content.WriteString("\n")
			content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(msg.Content))
			content.WriteString("\n\n")
			continue
		}

		content.WriteString(assistantLabelStyle.Render("Coach"))
		content.WriteString("\n")

		if msg.Thinking != "" {
			if i == latest && m.thinkingOpen {
				content.WriteString(thoughtsStyle.Width(bubbleWidth).Render(msg.Thinking))
			} else {
				content.WriteString(thoughtsCollapsedStyle.Render("▸ reasoning hidden (ctrl+t)"))
			}
			content.WriteString("\n")
		}

		body := msg.Content
		if body == "" && i == latest && m.state.InFlight() {
			body = hintStyle.Render("...")
		} else {
			body = render.Answer(body, mdOpts)
		}
		content.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(body))
		content.WriteString("\n")

		if msg.HasConfidence() {
			content.WriteString(" ")
			content.WriteString(render.ConfidenceMeter(msg.Confidence(), render.DefaultMeterWidth, render.GetTUITheme()))
			content.WriteString("\n")
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
	m.viewport.GotoBottom()
}

func lastAssistant(messages []models.ChatMessage) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleAssistant {
			return i
		}
	}
	return -1
}

// RunChat starts the interactive chat screen
func RunChat(ctrl *conversation.Controller, opts Options) error {
	m := NewChatModel(ctrl, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

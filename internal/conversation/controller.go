// Package conversation owns the chat transcript and the per-turn state machine.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/diogo/tacticscoach/internal/api"
	apierrors "github.com/diogo/tacticscoach/internal/errors"
	"github.com/diogo/tacticscoach/internal/models"
)

var errNoAsker = errors.New("conversation has no asker")

// Asker streams one answer. *api.Client implements it.
type Asker interface {
	Ask(ctx context.Context, prompt string, opts *api.AskOptions) (models.Snapshot, error)
}

// Event is published to observers after every transition.
type Event struct {
	// Seq increases with every event. Observers running on another
	// goroutine can drop events older than one they already applied.
	Seq      uint64
	TurnID   string
	State    models.TurnState
	Messages []models.ChatMessage
	// Flush is set for transitions that should be drawn without throttling.
	Flush bool
	Err   error
}

// Observer receives events. It is called without the controller lock held,
// possibly from the goroutine running Ask.
type Observer func(Event)

// Controller holds the message list and at most one in-flight turn.
type Controller struct {
	asker  Asker
	logger *zap.Logger

	mu          sync.Mutex
	messages    []models.ChatMessage
	state       models.TurnState
	turnID      string
	placeholder int
	cancel      context.CancelFunc
	seq         uint64
	observers   []Observer
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers an observer
func WithObserver(obs Observer) Option {
	return func(c *Controller) {
		if obs != nil {
			c.observers = append(c.observers, obs)
		}
	}
}

// New creates a Controller whose transcript starts with the greeting.
// asker may be nil when turns are driven manually through Submit and the On* methods.
func New(asker Asker, opts ...Option) *Controller {
	c := &Controller{
		asker:       asker,
		logger:      zap.NewNop(),
		messages:    []models.ChatMessage{models.Greeting()},
		state:       models.TurnIdle,
		placeholder: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers an observer after construction
func (c *Controller) Subscribe(obs Observer) {
	if obs == nil {
		return
	}
	c.mu.Lock()
	c.observers = append(c.observers, obs)
	c.mu.Unlock()
}

// Submit starts a turn: it appends the user message and an empty assistant
// placeholder and returns the new turn ID.
func (c *Controller) Submit(prompt string) (string, error) {
	return c.submit(prompt, nil)
}

func (c *Controller) submit(prompt string, cancel context.CancelFunc) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", apierrors.ErrEmptyPrompt
	}

	c.mu.Lock()
	if c.state.InFlight() {
		c.mu.Unlock()
		return "", apierrors.ErrTurnInFlight
	}

	turnID := uuid.NewString()
	c.turnID = turnID
	c.state = models.TurnAwaitingFirstByte
	c.messages = append(c.messages,
		models.ChatMessage{Role: models.RoleUser, Content: prompt},
		models.ChatMessage{Role: models.RoleAssistant},
	)
	c.placeholder = len(c.messages) - 1
	c.cancel = cancel
	ev := c.eventLocked(true, nil)
	c.mu.Unlock()

	c.logger.Debug("turn submitted", zap.String("turn_id", turnID))
	c.publish(ev)
	return turnID, nil
}

// OnFirstByte moves the turn from awaiting-first-byte to streaming.
func (c *Controller) OnFirstByte(turnID string) {
	c.mu.Lock()
	if !c.activeLocked(turnID) || c.state != models.TurnAwaitingFirstByte {
		c.mu.Unlock()
		return
	}
	c.state = models.TurnStreaming
	ev := c.eventLocked(true, nil)
	c.mu.Unlock()

	c.publish(ev)
}

// OnRecord copies a snapshot into the placeholder. The confidence score is
// only overwritten when the snapshot carries one.
func (c *Controller) OnRecord(turnID string, snap models.Snapshot) {
	c.mu.Lock()
	if !c.activeLocked(turnID) {
		c.mu.Unlock()
		return
	}
	c.state = models.TurnStreaming

	msg := &c.messages[c.placeholder]
	msg.Content = snap.Answer
	msg.Thinking = snap.Thinking
	if snap.ConfidenceScore != nil {
		msg.ConfidenceScore = models.IntPtr(*snap.ConfidenceScore)
	}
	ev := c.eventLocked(snap.Flush || snap.IsFinal, nil)
	c.mu.Unlock()

	c.publish(ev)
}

// OnComplete ends the turn normally.
func (c *Controller) OnComplete(turnID string) {
	c.finish(turnID, models.TurnComplete, nil)
}

// OnError ends the turn and replaces the placeholder with the error reply.
func (c *Controller) OnError(turnID string, err error) {
	c.finish(turnID, models.TurnFailed, err)
}

// OnAbort ends the turn silently. The placeholder keeps what it had.
func (c *Controller) OnAbort(turnID string) {
	c.finish(turnID, models.TurnAborted, nil)
}

func (c *Controller) finish(turnID string, state models.TurnState, err error) {
	c.mu.Lock()
	if !c.activeLocked(turnID) {
		c.mu.Unlock()
		return
	}

	if state == models.TurnFailed {
		c.messages[c.placeholder] = models.ChatMessage{
			Role:    models.RoleAssistant,
			Content: models.ErrorReplyText,
		}
	}
	c.state = state
	c.placeholder = -1
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	ev := c.eventLocked(true, err)
	c.mu.Unlock()

	fields := []zap.Field{zap.String("turn_id", turnID), zap.Stringer("state", state)}
	if err != nil {
		c.logger.Warn("turn failed", append(fields, zap.Error(err))...)
	} else {
		c.logger.Debug("turn finished", fields...)
	}
	c.publish(ev)
}

// Reset aborts any in-flight turn and replaces the transcript with the greeting.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.turnID = ""
	c.state = models.TurnIdle
	c.placeholder = -1
	c.messages = []models.ChatMessage{models.Greeting()}
	ev := c.eventLocked(true, nil)
	c.mu.Unlock()

	c.logger.Debug("conversation reset")
	c.publish(ev)
}

// Ask runs a whole turn against the Asker and blocks until it ends. A
// cancelled ctx or a call to Abort ends the turn as aborted, and Ask then
// returns context.Canceled.
func (c *Controller) Ask(ctx context.Context, prompt string) error {
	if c.asker == nil {
		return errNoAsker
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	turnID, err := c.submit(prompt, cancel)
	if err != nil {
		return err
	}

	_, err = c.asker.Ask(ctx, strings.TrimSpace(prompt), &api.AskOptions{
		OnFirstByte: func() { c.OnFirstByte(turnID) },
		OnSnapshot:  func(s models.Snapshot) { c.OnRecord(turnID, s) },
	})

	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		c.OnAbort(turnID)
		return context.Canceled
	case err != nil:
		c.OnError(turnID, err)
		return err
	default:
		c.OnComplete(turnID)
		return nil
	}
}

// Abort cancels the in-flight turn started by Ask. It reports whether there was one.
func (c *Controller) Abort() bool {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// Messages returns a copy of the transcript
func (c *Controller) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CloneMessages(c.messages)
}

// State returns the state of the current or last turn
func (c *Controller) State() models.TurnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TurnID returns the ID of the current or last turn, empty after Reset
func (c *Controller) TurnID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turnID
}

// LastAnswer returns the content of the newest assistant message
func (c *Controller) LastAnswer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == models.RoleAssistant {
			return c.messages[i].Content
		}
	}
	return ""
}

// activeLocked reports whether turnID is the current in-flight turn.
// MUST be called with c.mu held.
func (c *Controller) activeLocked(turnID string) bool {
	return turnID != "" && turnID == c.turnID && c.state.InFlight() && c.placeholder >= 0
}

// eventLocked builds the next event. MUST be called with c.mu held.
func (c *Controller) eventLocked(flush bool, err error) Event {
	c.seq++
	return Event{
		Seq:      c.seq,
		TurnID:   c.turnID,
		State:    c.state,
		Messages: models.CloneMessages(c.messages),
		Flush:    flush,
		Err:      err,
	}
}

func (c *Controller) publish(ev Event) {
	c.mu.Lock()
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	for _, obs := range observers {
		obs(ev)
	}
}

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/diogo/tacticscoach/internal/api"
	"github.com/diogo/tacticscoach/internal/config"
	apierrors "github.com/diogo/tacticscoach/internal/errors"
	"github.com/diogo/tacticscoach/internal/models"
	"github.com/diogo/tacticscoach/internal/render"
)

// cliStyles mirror the chat TUI bubbles for one-shot output
type cliStyles struct {
	theme      render.TUITheme
	label      lipgloss.Style
	bubble     lipgloss.Style
	thoughts   lipgloss.Style
	success    lipgloss.Style
	warning    lipgloss.Style
	errorStyle lipgloss.Style
	dim        lipgloss.Style
}

func newCLIStyles(theme render.TUITheme) cliStyles {
	return cliStyles{
		theme: theme,
		label: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),
		bubble: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Primary).
			Foreground(theme.Text).
			Padding(0, 1).
			MarginTop(1).
			MarginBottom(1),
		thoughts: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(theme.Accent).
			BorderLeft(true).
			Foreground(theme.TextDim).
			PaddingLeft(1).
			MarginLeft(1).
			Italic(true),
		success:    lipgloss.NewStyle().Foreground(theme.Success),
		warning:    lipgloss.NewStyle().Foreground(theme.Warning),
		errorStyle: lipgloss.NewStyle().Foreground(theme.Error),
		dim:        lipgloss.NewStyle().Foreground(theme.TextDim),
	}
}

// spinner handles the animated loading indicator
type spinner struct {
	out     io.Writer
	colors  []lipgloss.Color
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner writing to out
func newSpinner(out io.Writer, message string) *spinner {
	theme := render.GetTUITheme()
	return &spinner{
		out:     out,
		colors:  []lipgloss.Color{theme.Primary, theme.Success, theme.Accent, theme.Secondary, theme.Warning},
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// setMessage replaces the text shown next to the animation
func (s *spinner) setMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// render draws the current animation frame. Caller holds s.mu.
func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "▓", "▒", "░"}

	spinColor := s.colors[s.frame%len(s.colors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[s.frame%len(chars)])

	var bar strings.Builder
	for i := 0; i < 12; i++ {
		style := lipgloss.NewStyle().Foreground(s.colors[(i+s.frame)%len(s.colors)])
		bar.WriteString(style.Render(barChars[(i+s.frame/2)%len(barChars)]))
	}

	fmt.Fprintf(s.out, "\r\033[K%s %s %s", spinnerChar, bar.String(), s.message)
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWith stops the spinner and prints a status line
func (s *spinner) stopWith(style lipgloss.Style, mark, message string) {
	s.stopOnce()
	<-s.done
	fmt.Fprintf(s.out, "%s %s\n", style.Bold(true).Render(mark), style.Render(message))
}

// stopWithError stops the spinner without a status line
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// progressMessage describes a streamed snapshot for the spinner
func progressMessage(snap models.Snapshot) string {
	if snap.Answer == "" {
		return "The coach is thinking"
	}
	return fmt.Sprintf("The coach is answering (%d chars)", len([]rune(snap.Answer)))
}

// runQuery asks one question and prints the answer
func runQuery(ctx context.Context, deps *Dependencies, flags *globalFlags, qflags *queryFlags, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return apierrors.ErrEmptyPrompt
	}

	sess, err := deps.newSession(flags)
	if err != nil {
		return err
	}
	defer sess.close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	decorated := !qflags.raw && deps.Interactive()
	styles := newCLIStyles(render.GetTUITheme())

	var spin *spinner
	if decorated {
		spin = newSpinner(deps.Stderr, "Waiting for the coach")
		spin.start()
	}

	opts := &api.AskOptions{
		OnFirstByte: func() {
			if spin != nil {
				spin.stopWith(styles.success, "✓", "Connected")
				spin = newSpinner(deps.Stderr, "The coach is thinking")
				spin.start()
			}
		},
		OnSnapshot: func(snap models.Snapshot) {
			if spin != nil {
				spin.setMessage(progressMessage(snap))
			}
		},
	}

	startTime := time.Now()
	snap, err := sess.client.Ask(ctx, prompt, opts)
	canceled := apierrors.IsCanceled(err)

	sess.logger.Info("query finished",
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("answer_len", len(snap.Answer)),
		zap.Bool("final", snap.IsFinal),
		zap.Bool("canceled", canceled),
		zap.Error(err),
	)

	if err != nil && !canceled {
		if spin != nil {
			spin.stopWithError()
		}
		return err
	}
	if spin != nil {
		if canceled {
			spin.stopWith(styles.warning, "■", "Stopped")
		} else {
			spin.stopWith(styles.success, "✓", "Done")
		}
	}
	if canceled && snap.Answer == "" {
		return nil
	}

	return writeAnswer(deps, sess.cfg, qflags, snap, decorated, styles)
}

// writeAnswer prints or saves the answer. raw prints only the answer text;
// plain (non-terminal) output keeps the reasoning and confidence on stderr
// so stdout can be piped.
func writeAnswer(deps *Dependencies, cfg config.Config, qflags *queryFlags, snap models.Snapshot, decorated bool, styles cliStyles) error {
	text := snap.Answer
	showThinking := cfg.ShowThinking && !qflags.noThinking && snap.Thinking != ""

	if qflags.raw {
		if qflags.output != "" {
			return writeOutputFile(qflags.output, text)
		}
		fmt.Fprintln(deps.Stdout, text)
		return nil
	}

	if cfg.CopyToClipboard {
		if err := deps.Clipboard(text); err != nil {
			fmt.Fprintln(deps.Stderr, styles.warning.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else {
			fmt.Fprintln(deps.Stderr, styles.success.Render("✓ Copied to clipboard"))
		}
	}

	if qflags.output != "" {
		if err := writeOutputFile(qflags.output, text); err != nil {
			return err
		}
		fmt.Fprintln(deps.Stderr, styles.success.Render(fmt.Sprintf("✓ Answer saved to %s", qflags.output)))
		if snap.HasConfidence() {
			fmt.Fprintln(deps.Stderr, render.ConfidencePlain(*snap.ConfidenceScore))
		}
		return nil
	}

	if !decorated {
		if showThinking {
			fmt.Fprintln(deps.Stderr, snap.Thinking)
			fmt.Fprintln(deps.Stderr)
		}
		fmt.Fprintln(deps.Stdout, text)
		if snap.HasConfidence() {
			fmt.Fprintln(deps.Stderr, render.ConfidencePlain(*snap.ConfidenceScore))
		}
		return nil
	}

	bubbleWidth := getTerminalWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	fmt.Fprintln(deps.Stdout)
	fmt.Fprintln(deps.Stdout, styles.label.Render("⚽ Coach"))

	if showThinking {
		fmt.Fprintln(deps.Stdout, styles.thoughts.Width(contentWidth).Render(snap.Thinking))
	}

	renderOpts := render.OptionsFromConfig(cfg.Markdown, contentWidth)
	fmt.Fprintln(deps.Stdout, styles.bubble.Width(bubbleWidth).Render(render.Answer(text, renderOpts)))

	if snap.HasConfidence() {
		fmt.Fprintln(deps.Stdout, " "+render.ConfidenceMeter(*snap.ConfidenceScore, render.DefaultMeterWidth, styles.theme))
	}

	return nil
}

func writeOutputFile(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	styles := newCLIStyles(render.GetTUITheme())

	var sb strings.Builder
	sb.WriteString(styles.errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(styles.dim.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(styles.dim.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	// The backend's own message is more useful than a generic hint
	if body := apierrors.GetResponseBody(err); body != "" {
		sb.WriteString(styles.dim.Render(fmt.Sprintf("\n\n  %s", strings.ReplaceAll(body, "\n", "\n  "))))
	} else {
		switch {
		case apierrors.IsTimeoutError(err):
			sb.WriteString(styles.dim.Render("\n  Hint: The coach took too long. Try again or pass --timeout"))
		case apierrors.IsNetworkError(err):
			sb.WriteString(styles.dim.Render("\n  Hint: Is the tactics backend running? Check with 'coach ping' or pass --url"))
		case apierrors.IsParseError(err):
			sb.WriteString(styles.dim.Render("\n  Hint: The backend answered with something other than JSON"))
		case apierrors.IsAPIError(err):
			sb.WriteString(styles.dim.Render("\n  Hint: The backend rejected the request. Check its logs"))
		}
	}

	return sb.String()
}

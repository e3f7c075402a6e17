package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/diogo/tacticscoach/internal/api"
	"github.com/diogo/tacticscoach/internal/config"
	"github.com/diogo/tacticscoach/internal/conversation"
	"github.com/diogo/tacticscoach/internal/logging"
	"github.com/diogo/tacticscoach/internal/render"
	"github.com/diogo/tacticscoach/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(ctrl *conversation.Controller, opts tui.Options) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// Client is used instead of building one from the configuration when set.
	Client api.ClientInterface

	// TUI is the terminal user interface.
	TUI TUIInterface

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Clipboard copies text to the system clipboard.
	Clipboard func(string) error

	// Interactive reports whether stdout is a terminal. Decorated output and
	// the spinner are only used when it is.
	Interactive func() bool
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(ctrl *conversation.Controller, opts tui.Options) error {
	return tui.RunChat(ctrl, opts)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI:         &DefaultTUI{},
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Clipboard:   clipboard.WriteAll,
		Interactive: isStdoutTTY,
	}
}

// withDefaults fills unset fields so tests only set what they need
func (d *Dependencies) withDefaults() *Dependencies {
	if d == nil {
		return NewDependencies()
	}
	out := *d
	def := NewDependencies()
	if out.TUI == nil {
		out.TUI = def.TUI
	}
	if out.Stdin == nil {
		out.Stdin = def.Stdin
	}
	if out.Stdout == nil {
		out.Stdout = def.Stdout
	}
	if out.Stderr == nil {
		out.Stderr = def.Stderr
	}
	if out.Clipboard == nil {
		out.Clipboard = def.Clipboard
	}
	if out.Interactive == nil {
		out.Interactive = def.Interactive
	}
	return &out
}

// session is everything a command needs to talk to the backend
type session struct {
	cfg    config.Config
	logger *zap.Logger
	client api.ClientInterface
}

func (s *session) close() {
	_ = s.logger.Sync()
}

// newSession loads the configuration, applies flag overrides, and builds
// the logger and the client.
func (d *Dependencies) newSession(flags *globalFlags) (*session, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if flags.baseURL != "" {
		cfg.BaseURL = flags.baseURL
	}
	if flags.timeout > 0 {
		cfg.TimeoutSeconds = flags.timeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.TUITheme != "" && !render.SetTUITheme(cfg.TUITheme) {
		fmt.Fprintf(d.Stderr, "Warning: unknown theme '%s', using default\n", cfg.TUITheme)
	}

	logOpts, err := logging.OptionsFromConfig(cfg, flags.verbose)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	client := d.Client
	if client == nil {
		c, err := api.NewClient(
			api.WithBaseURL(cfg.BaseURL),
			api.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
			api.WithClientProfile(cfg.ClientProfile),
			api.WithLogger(logger),
		)
		if err != nil {
			_ = logger.Sync()
			return nil, fmt.Errorf("failed to create client: %w", err)
		}
		client = c
	}

	logger.Debug("session ready",
		zap.String("base_url", client.BaseURL()),
		zap.Int("timeout_seconds", cfg.TimeoutSeconds),
		zap.String("client_profile", cfg.ClientProfile),
	)

	return &session{cfg: cfg, logger: logger, client: client}, nil
}

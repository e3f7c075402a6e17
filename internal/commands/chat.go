package commands

import (
	"github.com/spf13/cobra"

	"github.com/diogo/tacticscoach/internal/conversation"
	"github.com/diogo/tacticscoach/internal/render"
	"github.com/diogo/tacticscoach/internal/tui"
)

// NewChatCmd creates the interactive chat command
func NewChatCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat with the coach",
		Long: `Start an interactive chat with the coach.

Enter sends a question, Esc stops a streaming answer, Ctrl+R or /reset
starts over, Ctrl+T shows or hides the coach's reasoning and Ctrl+Y copies
the latest answer. Type 'exit', 'quit', or press Ctrl+C to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(deps, flags)
		},
	}
}

func runChat(deps *Dependencies, flags *globalFlags) error {
	sess, err := deps.newSession(flags)
	if err != nil {
		return err
	}
	defer sess.close()

	ctrl := conversation.New(sess.client, conversation.WithLogger(sess.logger))

	tui.UpdateTheme()
	return deps.TUI.RunChat(ctrl, tui.Options{
		BaseURL:      sess.client.BaseURL(),
		ShowThinking: sess.cfg.ShowThinking,
		MaxFPS:       sess.cfg.MaxFPS,
		Markdown:     render.OptionsFromConfig(sess.cfg.Markdown, 0),
		Clipboard:    deps.Clipboard,
		Logger:       sess.logger,
	})
}

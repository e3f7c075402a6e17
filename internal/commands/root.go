// Package commands provides CLI commands for the tactics coach.
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// globalFlags are shared by every command
type globalFlags struct {
	baseURL string
	timeout int
	verbose bool
}

// queryFlags belong to the single-shot root command
type queryFlags struct {
	file       string
	output     string
	raw        bool
	noThinking bool
}

// NewRootCmd builds the command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	deps = deps.withDefaults()
	flags := &globalFlags{}
	qflags := &queryFlags{}

	rootCmd := &cobra.Command{
		Use:   "coach [question]",
		Short: "Ask a tactical soccer coach",
		Long: `coach streams answers from a tactical soccer coaching backend.
Answers arrive with the coach's reasoning and a confidence score.

Examples:
  coach chat                                  Start interactive chat
  coach "How do I break down a low block?"    Ask a single question
  coach -f question.md                        Read the question from a file
  cat question.md | coach                     Read the question from stdin
  coach "Best press vs 4-3-3?" -o plan.md     Save the answer to a file
  coach ping                                  Check the backend is up`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "coach %s (built %s)\n", Version, BuildTime)
				return nil
			}

			prompt, ok, err := readPrompt(deps.Stdin, qflags.file, args)
			if err != nil {
				return err
			}
			if !ok {
				return cmd.Help()
			}
			return runQuery(cmd.Context(), deps, flags, qflags, prompt)
		},
	}

	rootCmd.SetIn(deps.Stdin)
	rootCmd.SetOut(deps.Stdout)
	rootCmd.SetErr(deps.Stderr)

	rootCmd.PersistentFlags().StringVarP(&flags.baseURL, "url", "u", "", "Backend base URL (overrides base_url)")
	rootCmd.PersistentFlags().IntVarP(&flags.timeout, "timeout", "t", 0, "Request timeout in seconds (overrides timeout_seconds)")
	rootCmd.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "Log at debug level")
	rootCmd.Flags().StringVarP(&qflags.file, "file", "f", "", "Read the question from file")
	rootCmd.Flags().StringVarP(&qflags.output, "output", "o", "", "Save the answer to file")
	rootCmd.Flags().BoolVar(&qflags.raw, "raw", false, "Print only the answer text")
	rootCmd.Flags().BoolVar(&qflags.noThinking, "no-thinking", false, "Do not print the coach's reasoning")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(NewChatCmd(deps, flags))
	rootCmd.AddCommand(NewPingCmd(deps, flags))
	rootCmd.AddCommand(NewConfigCmd(deps))

	return rootCmd
}

// readPrompt picks the question from the file flag, piped stdin, or the
// positional argument, in that order. ok is false when there is none.
func readPrompt(stdin io.Reader, file string, args []string) (string, bool, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if hasPipedInput(stdin) {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		// An empty pipe (e.g. /dev/null under a scheduler) falls through to args.
		if strings.TrimSpace(string(data)) != "" {
			return string(data), true, nil
		}
	}

	if len(args) > 0 {
		return args[0], true, nil
	}

	return "", false, nil
}

// hasPipedInput reports whether stdin is a pipe or file rather than a terminal.
// Readers that are not files (tests) count as piped.
func hasPipedInput(stdin io.Reader) bool {
	f, ok := stdin.(*os.File)
	if !ok {
		return stdin != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// Execute runs the root command
func Execute() {
	deps := NewDependencies()
	if err := NewRootCmd(deps).Execute(); err != nil {
		fmt.Fprintln(deps.Stderr, formatErrorMessage(err, "Error"))
		os.Exit(1)
	}
}

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/tacticscoach/internal/render"
)

// pingTimeout bounds the health check independently of the answer timeout
const pingTimeout = 10 * time.Second

// NewPingCmd creates the health check command
func NewPingCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the tactics backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPing(cmd.Context(), deps, flags)
		},
	}
}

func runPing(ctx context.Context, deps *Dependencies, flags *globalFlags) error {
	sess, err := deps.newSession(flags)
	if err != nil {
		return err
	}
	defer sess.close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	start := time.Now()
	message, err := sess.client.Ping(ctx)
	elapsed := time.Since(start).Round(time.Millisecond)
	sess.logger.Info("ping", zap.Duration("duration", elapsed), zap.Error(err))
	if err != nil {
		return err
	}

	styles := newCLIStyles(render.GetTUITheme())
	line := fmt.Sprintf("✓ %s is up (%s)", sess.client.BaseURL(), elapsed)
	fmt.Fprintln(deps.Stdout, styles.success.Render(line))
	if message != "" {
		fmt.Fprintln(deps.Stdout, styles.dim.Render("  "+message))
	}
	return nil
}

// Command fitvision analyses recorded pose keypoints for exercise form,
// counting repetitions or timing holds.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd, cc := newRootCommand()
	code := execute(ctx, cmd, cc, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs cmd, releases what the invocation opened and returns the
// process exit code. Command and cleanup errors are both reported.
func execute(ctx context.Context, cmd *cobra.Command, cc *commandContext, stderr io.Writer) int {
	code := 0
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, err)
		}
		code = 1
	}
	if err := cc.close(); err != nil {
		fmt.Fprintf(stderr, "cleanup: %v\n", err)
		code = 1
	}
	return code
}

package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// CommonOptions contains flags shared across commands.
type CommonOptions struct {
	// Output
	Format string

	// Execution
	Timeout time.Duration

	// formats accepted by --format
	formats []string
}

// DefaultCommonOptions returns sensible defaults for a command printing
// one of formats; the first one is the default.
func DefaultCommonOptions(formats ...string) CommonOptions {
	opts := CommonOptions{
		Timeout: 2 * time.Minute,
		formats: formats,
	}
	if len(formats) > 0 {
		opts.Format = formats[0]
	}
	return opts
}

// RegisterFlags adds common flags to a cobra command.
func (opts *CommonOptions) RegisterFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", opts.Timeout,
		"Timeout for the whole command (0 to disable)")

	if len(opts.formats) > 0 {
		cmd.Flags().StringVar(&opts.Format, "format", opts.Format,
			"Output format: "+strings.Join(opts.formats, ", "))
	}
}

// ApplyToContext applies timeout to context.
// Returns new context and cancel function.
func (opts *CommonOptions) ApplyToContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if opts.Timeout > 0 {
		return context.WithTimeout(ctx, opts.Timeout)
	}
	// No timeout - return no-op cancel
	return ctx, func() {}
}

// ValidateFlags validates common options.
func (opts *CommonOptions) ValidateFlags() error {
	if opts.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %s", opts.Timeout)
	}
	if len(opts.formats) > 0 && !slices.Contains(opts.formats, opts.Format) {
		return fmt.Errorf("invalid format: %s (valid: %s)", opts.Format, strings.Join(opts.formats, ", "))
	}
	return nil
}

package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

// NewChannelsCommand creates the channels command.
func NewChannelsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "List the capabilities the bridge exposes",
		Long: `List the capabilities the bridge exposes.

Remotely this reads the ready frame the server sends on connect; with
--local it lists the in-process registry.

Example:
  bridgectl channels --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listChannels(cmd, opts)
		},
	}
}

func listChannels(cmd *cobra.Command, opts *RootOptions) error {
	out := opts.formatter(cmd)
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	s, err := openSession(ctx, opts)
	if err != nil {
		_ = out.Error("E002", "connect failed", err.Error())
		return WrapExitError(ExitCommandError, "connect failed", err)
	}
	defer s.close()

	if opts.Format == "json" {
		return out.Success(map[string]interface{}{"channels": s.channels, "count": len(s.channels)})
	}
	return out.Success(strings.Join(s.channels, "\n"))
}

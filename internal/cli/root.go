// Package cli implements bridgectl, a command line client for the bridge.
//
// Commands either dial a running server's /bridge websocket or, with
// --local, host the capability plugins in-process over a sandbox directory.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	URL     string
	Timeout time.Duration

	Local  bool
	Root   string
	Bundle string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// DefaultURL is the bridge endpoint of a server started with defaults
const DefaultURL = "ws://localhost:8000/bridge"

// NewRootCommand creates the root command for bridgectl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "bridgectl",
		Short: "Talk to the web container bridge",
		Long:  "Invoke native capabilities through the web container bridge, remotely or in-process.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Local && opts.Root == "" {
				return fmt.Errorf("--local requires --root")
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.URL, "url", DefaultURL, "bridge websocket url")
	flags.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "time to wait for a result")
	flags.BoolVar(&opts.Local, "local", false, "run the plugins in-process instead of dialling a server")
	flags.StringVar(&opts.Root, "root", "", "sandbox root for --local")
	flags.StringVar(&opts.Bundle, "bundle", "", "web bundle directory for --local")

	cmd.AddCommand(NewChannelsCommand(opts))
	cmd.AddCommand(NewCallCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

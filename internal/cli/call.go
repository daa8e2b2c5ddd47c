package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
	"github.com/GriffinCanCode/webcontainer/internal/client"
)

// CallOptions holds flags for the call command.
type CallOptions struct {
	*RootOptions
	Data string
}

// CallResult is the JSON payload of a settled call
type CallResult struct {
	Channel  string      `json:"channel"`
	EventID  string      `json:"eventId"`
	Success  bool        `json:"success"`
	Data     bridge.Data `json:"data,omitempty"`
	Progress []float64   `json:"progress,omitempty"`
}

// NewCallCommand creates the call command.
func NewCallCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CallOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "call <channel>",
		Short: "Invoke one capability and wait for its result",
		Long: `Invoke one capability and wait for its result.

The request body is validated locally before it is posted. Progress
updates are printed as they arrive; the command exits 1 when the
capability reports failure.

Example:
  bridgectl call getFileList --data '{"path":"docs"}'
  bridgectl call downloadFile --data '{"url":"https://example.com/a.zip","filePath":"a.zip"}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "{}", "request body as JSON")

	return cmd
}

func invoke(cmd *cobra.Command, opts *CallOptions, name string) error {
	out := opts.formatter(cmd)

	ch, ok := bridge.ParseChannel(name)
	if !ok {
		_ = out.Error("E001", fmt.Sprintf("unknown channel %q", name), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown channel %q", name))
	}
	req, err := bridge.DecodeRequest(ch, []byte(opts.Data))
	if err != nil {
		_ = out.Error("E001", "invalid request", err.Error())
		return WrapExitError(ExitCommandError, "invalid request", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	s, err := openSession(ctx, opts.RootOptions)
	if err != nil {
		_ = out.Error("E002", "connect failed", err.Error())
		return WrapExitError(ExitCommandError, "connect failed", err)
	}
	defer s.close()

	call, err := s.proxy.Call(ctx, req)
	if err != nil {
		_ = out.Error("E002", "post failed", err.Error())
		return WrapExitError(ExitCommandError, "post failed", err)
	}
	out.VerboseLog("posted %s as %s", ch, call.EventID())

	progress, err := follow(ctx, call, out)
	if err != nil {
		_ = out.Error("E004", "no result", err.Error())
		return WrapExitError(ExitCommandError, "no result", err)
	}
	result, err := call.Wait(ctx)
	if err != nil {
		_ = out.Error("E004", "no result", err.Error())
		return WrapExitError(ExitCommandError, "no result", err)
	}
	reportNavigation(s, out)

	if !result.Success {
		_ = out.Error("E003", result.Err().Error(), result.Data)
		return WrapExitError(ExitFailure, fmt.Sprintf("%s failed", ch), result.Err())
	}

	if opts.Format == "json" {
		return out.Success(CallResult{
			Channel:  ch.String(),
			EventID:  call.EventID(),
			Success:  true,
			Data:     result.Data,
			Progress: progress,
		})
	}
	if len(result.Data) == 0 {
		return out.Success("ok")
	}
	return out.Success(result.Data)
}

// follow drains progress until the call settles. Text mode prints each
// update as it arrives.
func follow(ctx context.Context, call *client.Call, out *OutputFormatter) ([]float64, error) {
	var seen []float64
	for {
		select {
		case f, ok := <-call.Progress():
			if !ok {
				return seen, nil
			}
			seen = append(seen, f)
			if out.Format != "json" {
				fmt.Fprintf(out.Writer, "progress %3.0f%%\n", f*100)
			}
		case <-ctx.Done():
			return seen, ctx.Err()
		}
	}
}

func reportNavigation(s *session, out *OutputFormatter) {
	if s.navigations == nil {
		return
	}
	select {
	case url, ok := <-s.navigations:
		if ok {
			out.VerboseLog("navigate %s", url)
		}
	default:
	}
}

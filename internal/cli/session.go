package cli

import (
	"context"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
	"github.com/GriffinCanCode/webcontainer/internal/client"
	"github.com/GriffinCanCode/webcontainer/internal/providers"
	"github.com/GriffinCanCode/webcontainer/internal/providers/relaunch"
	"github.com/GriffinCanCode/webcontainer/internal/providers/sqlite"
	"github.com/GriffinCanCode/webcontainer/internal/sandbox"
)

// session is a connected proxy plus whatever must be torn down with it
type session struct {
	proxy       *client.Proxy
	channels    []string
	navigations <-chan string
	close       func()
}

func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	if opts.Local {
		return openLocal(opts)
	}
	return openRemote(ctx, opts)
}

func openRemote(ctx context.Context, opts *RootOptions) (*session, error) {
	table := client.NewTable()
	conn, err := client.Dial(ctx, opts.URL, table, nil)
	if err != nil {
		return nil, err
	}
	hello, err := conn.Ready(ctx)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &session{
		proxy:       client.NewProxy(table, conn),
		channels:    hello.Channels,
		navigations: conn.Navigations(),
		close:       func() { _ = conn.Close() },
	}, nil
}

func openLocal(opts *RootOptions) (*session, error) {
	root, err := sandbox.New(opts.Root)
	if err != nil {
		return nil, err
	}

	navigations := make(chan string, 8)
	nav := relaunch.NavigatorFunc(func(_ context.Context, target relaunch.Target) error {
		select {
		case navigations <- target.URL:
		default:
		}
		return nil
	})

	slot := sqlite.NewSlot()
	host := &providers.Host{Root: root, Bundle: opts.Bundle}
	reg, err := host.Registry(providers.Session{Slot: slot, Navigator: nav})
	if err != nil {
		return nil, err
	}

	table := client.NewTable()
	loop := bridge.NewLoop(nil)
	dispatcher := bridge.NewDispatcher(reg, table, bridge.WithLoop(loop))

	runCtx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = loop.Run(runCtx)
		close(stopped)
	}()

	return &session{
		proxy:       client.NewProxy(table, client.NewLoopback(dispatcher, loop)),
		channels:    reg.Names(),
		navigations: navigations,
		close: func() {
			cancel()
			<-stopped
			_ = slot.Shutdown()
		},
	}, nil
}

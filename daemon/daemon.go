// Package daemon runs the persistent-mode process: the pass_persist command
// loop on stdin/stdout plus an optional HTTP liveness endpoint.
package daemon

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"cadbridge/bridge"
	"cadbridge/snmp"
)

// Run serves pass_persist commands from in until it closes (the SNMP daemon
// hung up) or ctx is cancelled. When healthAddr is non-empty a liveness
// endpoint runs alongside the command loop.
//
// Upstream failures never terminate the process: the engine degrades to an
// empty tree and recovers on a later successful poll.
func Run(ctx context.Context, engine *bridge.Engine, in io.Reader, out io.Writer, healthAddr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := snmp.NewServer(NewTreeSource(engine), in, out)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// A clean EOF still has to stop the health endpoint.
		defer cancel()
		return srv.Serve(ctx)
	})
	if healthAddr != "" {
		g.Go(func() error { return serveHealth(ctx, healthAddr, engine) })
	}
	return g.Wait()
}

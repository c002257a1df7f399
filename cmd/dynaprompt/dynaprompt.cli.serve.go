package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/itsatony/go-dynaprompt"
	"github.com/itsatony/go-dynaprompt/httpapi"
)

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   CmdNameServe,
		Short: "Serve the HTTP API",
		Long: `Serve tokenize, validate, expand and analyze over HTTP, plus wildcard
management when a store is configured. Metrics are exposed on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.metrics = dynaprompt.NewMetrics()
			engine, store, err := c.newEngine()
			if err != nil {
				return err
			}
			defer closeStore(store)

			ctx := cmd.Context()
			if c.v.GetBool(ConfigKeyWatch) {
				if err := c.watch(ctx, store); err != nil {
					return err
				}
			}

			return c.serve(ctx, engine)
		},
	}
	cmd.Flags().String(FlagAddr, FlagDefaultAddr, "listen address")
	cmd.Flags().Bool(FlagWatch, false, "reload the filesystem store when files change")
	_ = c.v.BindPFlag(ConfigKeyAddr, cmd.Flags().Lookup(FlagAddr))
	_ = c.v.BindPFlag(ConfigKeyWatch, cmd.Flags().Lookup(FlagWatch))
	return cmd
}

// watch reloads a filesystem store on change. Reload outcomes reach the
// store's logger and metrics.
func (c *cli) watch(ctx context.Context, store dynaprompt.WildcardStore) error {
	fs, ok := store.(*dynaprompt.FilesystemStorage)
	if !ok {
		return usageError(ErrMsgWatchNeedsFS, nil)
	}
	if err := fs.Watch(ctx, dynaprompt.WatchOptions{}); err != nil {
		return runtimeError(ErrMsgWatchFailed, err)
	}
	return nil
}

// serve runs until ctx is cancelled, then drains open requests
func (c *cli) serve(ctx context.Context, engine *dynaprompt.Engine) error {
	addr := c.v.GetString(ConfigKeyAddr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewRouter(engine, c.logger),
		ReadHeaderTimeout: ServerReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info(LogMsgServerStarting, zap.String(LogFieldAddr, addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return runtimeError(ErrMsgServerFailed, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ServerShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return runtimeError(ErrMsgServerFailed, err)
	}
	c.logger.Info(LogMsgServerStopped, zap.String(LogFieldAddr, addr))
	return nil
}

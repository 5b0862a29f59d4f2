package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-oauth-gateway/gateway"
	"github.com/jrsteele09/go-oauth-gateway/internal/config"
	"github.com/jrsteele09/go-oauth-gateway/internal/logging"
	"github.com/jrsteele09/go-oauth-gateway/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var noBanner bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, !noBanner)
		},
	}
	cmd.Flags().BoolVar(&noBanner, "no-banner", false, "Do not print the application banner")
	return cmd
}

func run(ctx context.Context, banner bool) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load()
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	if err != nil {
		log.Warn().Err(err).Msg("Falling back to default configuration")
	}
	for _, w := range c.Warnings() {
		log.Warn().Msg(w)
	}

	if banner {
		displayAppname(c.GetAppName())
	}

	httpClient := &http.Client{Timeout: c.GetExchangeTimeout()}
	svc, err := gateway.Build(ctx, c, httpClient)
	if err != nil {
		return fmt.Errorf("gateway.Build: %w", err)
	}

	handler, err := server.New(c, svc)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{
		Addr:              c.GetAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listenAndServe(httpServer)
	})
	g.Go(func() error {
		return svc.RunJanitor(gctx, c.GetSweepInterval())
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(httpServer)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

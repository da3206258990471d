// Command museupd serves the music aggregation API over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	museup "github.com/museup/museup-api"
	"github.com/museup/museup-api/client"
	"github.com/museup/museup-api/internal/config"
	"github.com/museup/museup-api/internal/logger"
	"github.com/museup/museup-api/server"
)

const version = "0.3.1"

var (
	flagConfig string
	flagAddr   string
	flagDebug  bool
)

func main() {
	root := &cobra.Command{
		Use:     "museupd",
		Short:   "Music aggregation API server",
		Long:    "museupd serves stream resolution, search, trending and category browsing over HTTP.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to TOML config file")
	root.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides config)")
	root.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging for all components")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Addr = flagAddr
	}
	if flagDebug {
		cfg.Debug = true
	}

	log := logger.GetGlobalLogger()
	if cfg.Debug {
		log.SetLevel(logger.DEBUG)
		log.EnableAll()
	}
	appLog := logger.WithComponent(logger.ComponentApp)

	httpClient := client.NewWith(client.Config{
		Timeout:  cfg.UpstreamTimeout(),
		ProxyURL: cfg.UpstreamProxy,
	})
	service := museup.New(museup.Options{
		HTTPClient:     httpClient.HTTPClient,
		TrendingWindow: cfg.TrendingWindow(),
		LenientCipher:  cfg.LenientCipher,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(service, cfg.MediaDir),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("listening", map[string]interface{}{"addr": cfg.Addr, "version": version})
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		appLog.Info("shutting down", map[string]interface{}{"signal": sig.String()})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	return nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"churchsite/internal/config"
	"churchsite/internal/content"
	"churchsite/internal/logging"
	"churchsite/internal/metrics"
	"churchsite/internal/store"
	"churchsite/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	checkOnly  bool
	once       bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		logging.Setup("production")
		log.Fatal().Err(err).Str("config_path", flags.configPath).Msg("failed to load config")
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	logging.Setup(conf.Environment)
	logger := log.With().Str("component", "churchsite").Logger()

	if err := conf.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if flags.checkOnly {
		logger.Info().Msg("configuration OK")
		return
	}

	logger.Info().
		Str("listen", conf.Listen).
		Str("timezone", conf.Timezone).
		Str("storage", conf.Storage.Backend).
		Int("services", len(conf.Services)).
		Int("special_events", len(conf.SpecialEvents)).
		Msg("starting")

	subs, err := store.Open(conf.Storage.Backend, conf.Storage.DSN, conf.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open submission store")
	}
	defer subs.Close()

	cs := content.NewStore(conf.DataDir, conf.DefaultLocale)
	if err := cs.Load(); err != nil {
		logger.Fatal().Err(err).Msg("failed to load event content")
	}
	if flags.once {
		logger.Info().Int("events", cs.Len()).Msg("content loaded, exiting (-once)")
		return
	}

	refresher, err := content.StartRefresher(conf.RefreshCron, cs, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start content refresher")
	}
	defer refresher.Stop()

	sink := metrics.NewPrometheusSink(prometheus.DefaultRegisterer)
	server := web.New(conf, logger, cs, subs, sink)

	httpSrv := &http.Server{
		Addr:              conf.Listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("listen", conf.Listen).Msg("http server listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("signal received, shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/churchsite/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.checkOnly, "check", false, "Validate configuration and exit")
	flag.BoolVar(&cfg.once, "once", false, "Load config and content once, then exit")

	flag.Parse()

	return cfg
}

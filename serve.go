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

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"musicstream/audio"
	"musicstream/config"
	"musicstream/controller"
	"musicstream/database"
	"musicstream/handlers"
	"musicstream/lyrics"
	"musicstream/sentry"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the catalog API and the server-hosted player",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides PORT)",
			},
		},
		Action: serve,
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Config
	if cmd.IsSet("port") {
		cfg.Server.Port = cmd.String("port")
	}

	if err := sentry.Init(cfg.Sentry); err != nil {
		log.Errorf("Error initializing sentry: %v", err)
	}
	defer sentry.Flush()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}
	defer store.Close()

	loader := audio.NewLoader()
	device := newDevice(loader, cfg.Player)
	player := controller.New(store,
		controller.WithDevice(device),
		controller.WithDurations(loader),
		controller.WithHistory(store),
	)
	defer player.Close()

	if err := player.LoadCatalog(ctx); err != nil {
		log.Warnf("initial catalog load incomplete: %v", err)
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), sentry.GetSentryGin())
	handlers.NewManager(store, player, lyrics.New(), device, cfg.Store.HistoryLimit).Register(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on :%s", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

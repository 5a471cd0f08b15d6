package main

import (
	"context"
	"os"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"musicstream/audio"
	"musicstream/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}
	config.NewConfig()
	setupLogging(config.Config.LogLevel)

	app := &cli.Command{
		Name:    "musicstream",
		Usage:   "Music catalog service and player",
		Version: "1.0.0",
		Commands: []*cli.Command{
			serveCommand(),
			playCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

func setupLogging(level string) {
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		FieldsOrder:     []string{"module"},
		TimestampFormat: time.RFC3339,
	})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("invalid LOG_LEVEL %q, using info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func newDevice(loader *audio.Loader, cfg config.PlayerConfig) *audio.Headless {
	opts := []audio.HeadlessOption{audio.WithTick(cfg.Tick)}
	if cfg.AutoplayRequiresGesture {
		opts = append(opts, audio.RequireGesture())
	}
	return audio.NewHeadless(loader, opts...)
}

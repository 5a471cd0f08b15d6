package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"musicstream/audio"
	"musicstream/catalog"
	"musicstream/config"
	"musicstream/controller"
	"musicstream/sentry"
	"musicstream/tui"
)

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Play the catalog of a running service in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "catalog-url",
				Aliases: []string{"u"},
				Usage:   "Catalog service base URL (overrides CATALOG_URL)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the player owns the terminal",
				Value: "tmp/musicstream-play.log",
			},
		},
		Action: play,
	}
}

func play(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Config
	if cmd.IsSet("catalog-url") {
		cfg.Catalog.BaseURL = cmd.String("catalog-url")
	}

	// logs would tear the TUI, so they go to a file
	logFile, err := openLogFile(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	if err := sentry.Init(cfg.Sentry); err != nil {
		log.Errorf("Error initializing sentry: %v", err)
	}
	defer sentry.Flush()

	loader := audio.NewLoader()
	device := newDevice(loader, cfg.Player)
	player := controller.New(catalog.New(cfg.Catalog.BaseURL, nil),
		controller.WithDevice(device),
		controller.WithDurations(loader),
	)
	defer player.Close()

	model := tui.New(ctx, player, device)
	defer model.Close()

	log.Infof("playing catalog from %s", cfg.Catalog.BaseURL)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

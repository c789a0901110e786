package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"duallist/internal/clock"
	"duallist/internal/config"
	"duallist/internal/eventbus"
	"duallist/internal/itemclient"
	"duallist/internal/ui"
	"duallist/internal/ui/inbox"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, apiURL string

	flagSet := pflag.NewFlagSet("duallist", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to the config file")
	flagSet.StringVar(&apiURL, "api-url", "", "item store base URL (overrides config and "+config.EnvAPIURL+")")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	// Load configuration
	configSvc := config.NewConfigServiceAt(configPath)
	cfg, err := configSvc.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
	}
	cfg.ApplyEnv(os.LookupEnv)
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Set up logging
	if cfg.LogFile != "" {
		logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			log.Printf("Could not open log file: %v", err)
		} else {
			defer logFile.Close()
			log.SetOutput(logFile)
		}
	}

	// Create context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := itemclient.New(cfg.API.BaseURL, cfg.API.Timeout.Std())
	client.Retries = cfg.API.Retries
	client.RetryDelay = cfg.API.RetryDelay.Std()

	bus := eventbus.New()
	mailbox := inbox.New(100)

	uiModel := ui.NewModel(ctx, bus, cfg, client, clock.Real(), mailbox.Post)
	p := tea.NewProgram(uiModel, tea.WithAltScreen(), tea.WithContext(ctx))
	uiModel.SetProgram(p)

	// Start forwarding bus and timer messages to the UI
	go mailbox.Forward(p.Send)

	log.Printf("Starting against %s", cfg.API.BaseURL)
	_, err = p.Run()

	// Cleanup
	uiModel.Close()
	mailbox.Close()

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/handiism/mixlauncher/internal/config"
	"github.com/handiism/mixlauncher/internal/ctxlog"
	ioutils "github.com/handiism/mixlauncher/internal/io"
	"github.com/handiism/mixlauncher/internal/launcher"
	"github.com/handiism/mixlauncher/internal/tui"
)

func main() {
	configFlag := flag.String("config", "", "Path to config file (JSON or YAML)")
	flag.Parse()

	settings := config.DefaultSettings()
	if *configFlag != "" {
		var err error
		if settings, err = config.Load(*configFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// The alternate screen owns the terminal, so logs go to a file.
	logPath := filepath.Join(settings.DataDir, "logs", "mixlaunch-tui.log")
	if err := ioutils.EnsureDir(filepath.Dir(logPath)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	ctx := ctxlog.WithLogger(context.Background(), ctxlog.New(settings.LogLevel, settings.LogFormat, logFile))
	core, err := launcher.New(ctx, settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer core.Close()

	if err := tui.Run(core, settings.DataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

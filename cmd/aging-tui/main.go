package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"aging-dashboard/internal/config"
	"aging-dashboard/internal/logging"
	"aging-dashboard/internal/session"
	"aging-dashboard/internal/store"
	"aging-dashboard/internal/ui"
	"aging-dashboard/pkg/utils"
)

func main() {
	file := flag.String("file", "", "aging sheet to load (.xlsx or .csv)")
	configFile := flag.String("config", "", "YAML config file")
	logPath := flag.String("log", "aging-tui.log", "log file; the terminal belongs to the dashboard")
	outDir := flag.String("out", "", "export directory (overrides dashboard.output_dir)")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: aging-tui -file aging.xlsx [-config config.yaml] [-out dir]")
		os.Exit(2)
	}

	if err := run(*file, *configFile, *logPath, *outDir); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(path, configFile, logPath, outDir string) error {
	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		return err
	}
	if outDir != "" {
		cfg.Dashboard.OutputDir = outDir
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: logFile})
	logging.SetDefault(logger)

	st, err := store.Open(cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer st.Close()

	sessions := session.NewManager(session.Options{
		Format:        cfg.Dashboard.DisplayFormat,
		MetricsScope:  cfg.Dashboard.MetricsScope,
		TruncateWidth: cfg.Dashboard.TruncateWidth,
	}, st, nil, logger)

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	ctx := context.Background()
	info, err := sessions.Load(ctx, filepath.Base(path), f)
	f.Close()
	if err != nil {
		return err
	}
	logger.Info("Sheet loaded", "file", path, "rows", info.Rows, "layout", info.Layout, "zeroed_cells", info.ZeroedCells)
	defer sessions.Close(ctx, info.ID)

	app, err := ui.New(sessions, info.ID, utils.NewOutputManager(cfg.Dashboard.OutputDir), logger)
	if err != nil {
		return err
	}
	return app.Run()
}

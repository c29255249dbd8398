/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// klipdot is a background daemon that intercepts images arriving through
// the clipboard, watched directories, stdin and screenshot tools,
// normalizes them to PNG and replaces the in-flight payload with a path
// to the stored file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klipdot/klipdot/pkg/config"
	"github.com/klipdot/klipdot/pkg/coordinator"
	"github.com/klipdot/klipdot/pkg/lifecycle"
	"github.com/klipdot/klipdot/pkg/logger"
	"github.com/klipdot/klipdot/pkg/store"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "klipdot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	args := os.Args[1:]

	cmd := "start"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("klipdot", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath(), "Path to the configuration file")
	days := fs.Int("days", 0, "Retention override in days for the cleanup command")
	limit := fs.Int("n", 0, "Maximum entries shown by the list command")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd == "version" {
		fmt.Println(version)
		return nil
	}

	ctx := context.Background()

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		return err
	}

	log, err := lifecycle.CreateComponentLogger("klipdot", cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	switch cmd {
	case "start":
		return runStart(ctx, cfg, log)
	case "status":
		return runStatus(ctx, cfg, log)
	case "list":
		return runList(ctx, cfg, log, *limit)
	case "cleanup":
		return runCleanup(ctx, cfg, log, *days)
	default:
		return fmt.Errorf("unknown command %q (expected start, status, list, cleanup or version)", cmd)
	}
}

// loadConfig reads the config file when it exists and otherwise runs on
// defaults, so a fresh install needs no setup.
func loadConfig(ctx context.Context, path string) (*coordinator.Config, error) {
	cfg := &coordinator.Config{}

	if _, err := os.Stat(path); err == nil {
		if err := config.NewConfig(nil).LoadAndValidate(ctx, path, cfg); err != nil {
			return nil, err
		}

		return cfg, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func runStart(ctx context.Context, cfg *coordinator.Config, log logger.Logger) error {
	coord, err := coordinator.New(cfg, log)
	if err != nil {
		return err
	}

	log.Info().Str("version", version).Msg("Starting klipdot")

	return lifecycle.Run(ctx, &lifecycle.RunOptions{
		Service: coord,
		Logger:  log,
	})
}

func runStatus(ctx context.Context, cfg *coordinator.Config, log logger.Logger) error {
	st, err := openStore(cfg, log)
	if err != nil {
		return err
	}

	images, err := st.List(ctx)
	if err != nil {
		return err
	}

	var total int64
	for _, img := range images {
		total += img.SizeBytes
	}

	fmt.Printf("screenshot dir: %s\n", st.Directory())
	fmt.Printf("stored images:  %d\n", len(images))
	fmt.Printf("total size:     %d bytes\n", total)

	return nil
}

func runList(ctx context.Context, cfg *coordinator.Config, log logger.Logger, limit int) error {
	st, err := openStore(cfg, log)
	if err != nil {
		return err
	}

	images, err := st.List(ctx)
	if err != nil {
		return err
	}

	if limit > 0 && len(images) > limit {
		images = images[:limit]
	}

	for _, img := range images {
		fmt.Printf("%s\t%d\t%s\n", img.ModTime.Format(time.RFC3339), img.SizeBytes, img.Path)
	}

	return nil
}

func runCleanup(ctx context.Context, cfg *coordinator.Config, log logger.Logger, days int) error {
	if days <= 0 {
		days = cfg.RetentionDays
	}

	st, err := openStore(cfg, log)
	if err != nil {
		return err
	}

	removed, err := st.CleanupOlderThan(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		return err
	}

	fmt.Printf("removed %d files older than %d days\n", removed, days)

	return nil
}

func openStore(cfg *coordinator.Config, log logger.Logger) (*store.ImageStore, error) {
	return store.New(&store.Config{
		Directory:    cfg.ScreenshotDir,
		MaxFileSize:  cfg.MaxFileSize,
		MaxDimension: cfg.MaxDimension,
	}, log)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}

	return filepath.Join(home, ".klipdot", "config.json")
}

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

package coordinator

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/klipdot/klipdot/pkg/logger"
	"github.com/klipdot/klipdot/pkg/models"
)

const (
	defaultPollInterval        = 1 * time.Second
	defaultProcessPollInterval = 5 * time.Second
	defaultDedupWindow         = 2 * time.Second
	defaultSettleDelay         = 100 * time.Millisecond
	defaultMaxFileSize         = 10 << 20
	defaultMaxDimension        = 3840
	defaultRetentionDays       = 30
)

var errNoHomeDir = errors.New("cannot resolve home directory for default paths")

// WatcherToggles enables or disables individual watchers. Nil means the
// default for that watcher: clipboard, files and process on, stdin on
// only when stdin is a pipe.
type WatcherToggles struct {
	Clipboard *bool `json:"clipboard,omitempty"`
	Files     *bool `json:"files,omitempty"`
	Stdin     *bool `json:"stdin,omitempty"`
	Process   *bool `json:"process,omitempty"`
}

func enabled(flag *bool, fallback bool) bool {
	if flag == nil {
		return fallback
	}

	return *flag
}

// Config is the daemon configuration, loaded from a JSON file.
type Config struct {
	// ScreenshotDir is where intercepted images land.
	ScreenshotDir string `json:"screenshot_dir"`

	// WatchDirs are observed for new image files.
	WatchDirs []string `json:"watch_dirs,omitempty"`

	// DropDir is a dedicated directory whose new files are tagged as
	// drag-and-drop captures. Always watched.
	DropDir string `json:"drop_dir,omitempty"`

	PollInterval        models.Duration `json:"poll_interval,omitempty"`
	ProcessPollInterval models.Duration `json:"process_poll_interval,omitempty"`
	DedupWindow         models.Duration `json:"dedup_window,omitempty"`
	SettleDelay         models.Duration `json:"settle_delay,omitempty"`

	MaxFileSize   int64 `json:"max_file_size,omitempty"`
	MaxDimension  int   `json:"max_dimension,omitempty"`
	RetentionDays int   `json:"retention_days,omitempty"`

	// ScreenshotTools overrides the process names treated as screenshot
	// tool launches.
	ScreenshotTools []string `json:"screenshot_tools,omitempty"`

	Watchers WatcherToggles `json:"watchers,omitempty"`

	Logging *logger.Config `json:"logging,omitempty"`
}

// Validate fills defaults and rejects nonsense values. Implements the
// config package's Validator interface.
func (c *Config) Validate() error {
	if c.ScreenshotDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errNoHomeDir
		}

		c.ScreenshotDir = filepath.Join(home, ".klipdot", "screenshots")
	}

	if c.DropDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errNoHomeDir
		}

		c.DropDir = filepath.Join(home, ".klipdot", "drop")
	}

	if len(c.WatchDirs) == 0 {
		home, err := os.UserHomeDir()
		if err != nil {
			return errNoHomeDir
		}

		c.WatchDirs = []string{
			filepath.Join(home, "Desktop"),
			filepath.Join(home, "Downloads"),
			filepath.Join(home, "Pictures"),
		}

		// The daemon's working directory is a capture surface too:
		// tools drop their output where they were launched.
		if cwd, err := os.Getwd(); err == nil {
			c.WatchDirs = append(c.WatchDirs, cwd)
		}
	}

	if !containsDir(c.WatchDirs, c.DropDir) {
		c.WatchDirs = append(c.WatchDirs, c.DropDir)
	}

	if c.PollInterval <= 0 {
		c.PollInterval = models.Duration(defaultPollInterval)
	}

	if c.ProcessPollInterval <= 0 {
		c.ProcessPollInterval = models.Duration(defaultProcessPollInterval)
	}

	if c.DedupWindow <= 0 {
		c.DedupWindow = models.Duration(defaultDedupWindow)
	}

	if c.SettleDelay <= 0 {
		c.SettleDelay = models.Duration(defaultSettleDelay)
	}

	if c.MaxFileSize <= 0 {
		c.MaxFileSize = defaultMaxFileSize
	}

	if c.MaxDimension <= 0 {
		c.MaxDimension = defaultMaxDimension
	}

	if c.RetentionDays <= 0 {
		c.RetentionDays = defaultRetentionDays
	}

	if c.Logging == nil {
		c.Logging = logger.DefaultConfig()
	}

	return nil
}

func containsDir(dirs []string, dir string) bool {
	for _, d := range dirs {
		if d == dir {
			return true
		}
	}

	return false
}

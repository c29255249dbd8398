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

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Dir      string `json:"dir"`
	Interval string `json:"interval"`

	validateErr error
}

func (c *sampleConfig) Validate() error {
	return c.validateErr
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `{"dir": "/tmp/shots", "interval": "250ms"}`)

	var cfg sampleConfig

	err := NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/shots", cfg.Dir)
	assert.Equal(t, "250ms", cfg.Interval)
}

func TestLoadAndValidateMissingFile(t *testing.T) {
	var cfg sampleConfig

	err := NewConfig(nil).LoadAndValidate(context.Background(), filepath.Join(t.TempDir(), "absent.json"), &cfg)
	assert.ErrorIs(t, err, errLoadConfigFailed)
}

func TestLoadAndValidateMalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"dir": `)

	var cfg sampleConfig

	err := NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg)
	assert.ErrorIs(t, err, errLoadConfigFailed)
}

func TestLoadAndValidateRequiresPointer(t *testing.T) {
	path := writeConfig(t, `{}`)

	var cfg sampleConfig

	err := NewConfig(nil).LoadAndValidate(context.Background(), path, cfg)
	assert.ErrorIs(t, err, errInvalidConfigPtr)
}

func TestLoadAndValidateRunsValidator(t *testing.T) {
	path := writeConfig(t, `{"dir": ""}`)

	wantErr := errors.New("dir is required")
	cfg := sampleConfig{validateErr: wantErr}

	err := NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg)
	assert.ErrorIs(t, err, wantErr)
}

func TestValidateConfigNonValidator(t *testing.T) {
	type plain struct{ Name string }

	assert.NoError(t, ValidateConfig(&plain{}))
}

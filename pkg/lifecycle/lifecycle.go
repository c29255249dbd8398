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

// Package lifecycle runs long-lived services until shutdown is requested.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klipdot/klipdot/pkg/logger"
)

const defaultShutdownTimeout = 10 * time.Second

var errShutdownTimeout = errors.New("service did not stop within shutdown timeout")

// Service is anything with a blocking Start and a cooperative Stop.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Name() string
}

// RunOptions configures Run.
type RunOptions struct {
	Service         Service
	ShutdownTimeout time.Duration
	Logger          logger.Logger
}

// Run starts the service and blocks until the context is cancelled or an
// interrupt/termination signal arrives, then stops the service with a
// bounded timeout. A service that does not stop within the timeout is
// abandoned and logged.
func Run(ctx context.Context, opts *RunOptions) error {
	log := opts.Logger

	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)

	go func() {
		errCh <- opts.Service.Start(runCtx)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("service %s failed: %w", opts.Service.Name(), err)
		}

		return nil
	case <-runCtx.Done():
	}

	log.Info().Str("service", opts.Service.Name()).Msg("Shutdown requested")

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), timeout)
	defer stopCancel()

	if err := opts.Service.Stop(stopCtx); err != nil {
		log.Error().Err(err).Str("service", opts.Service.Name()).Msg("Error stopping service")
		return err
	}

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("service %s failed: %w", opts.Service.Name(), err)
		}

		return nil
	case <-stopCtx.Done():
		log.Error().Str("service", opts.Service.Name()).Msg("Service did not stop in time, abandoning")
		return errShutdownTimeout
	}
}

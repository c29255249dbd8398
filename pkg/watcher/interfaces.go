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

// Package watcher implements the event sources of the interception
// engine. Each watcher owns one OS resource (clipboard handle, filesystem
// watches, stdin, process table) and funnels detected captures into a
// shared Sink.
package watcher

import (
	"context"
	"time"

	"github.com/klipdot/klipdot/pkg/models"
)

// Watcher is a long-running event source. Start blocks until the context
// is cancelled or Stop is called; Stop must release the underlying OS
// resource.
type Watcher interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Name() string
}

// Sink receives captures from all watchers. Implemented by the
// coordinator funnel, which deduplicates and persists. A duplicate
// sighting inside the dedup window returns ErrDuplicate with an empty
// path.
type Sink interface {
	Process(ctx context.Context, capture *models.CapturedImage) (string, error)
}

// Clock abstracts time-related operations.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
}

// Ticker abstracts the ticker behavior.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupIndexWithinWindow(t *testing.T) {
	d := newDedupIndex(2 * time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.True(t, d.reserve("fp-a", now))
	d.commit("fp-a", now)

	assert.False(t, d.reserve("fp-a", now.Add(time.Second)))
	assert.False(t, d.reserve("fp-a", now.Add(2*time.Second)))
}

func TestDedupIndexExpires(t *testing.T) {
	d := newDedupIndex(2 * time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.True(t, d.reserve("fp-a", now))
	d.commit("fp-a", now)

	assert.True(t, d.reserve("fp-a", now.Add(3*time.Second)))
}

func TestDedupIndexDistinctFingerprints(t *testing.T) {
	d := newDedupIndex(2 * time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.True(t, d.reserve("fp-a", now))

	assert.True(t, d.reserve("fp-b", now))
}

func TestDedupIndexReservationBlocksConcurrentStore(t *testing.T) {
	d := newDedupIndex(2 * time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// The second source arrives while the first store is still in
	// flight (nothing committed yet); it must be turned away.
	require.True(t, d.reserve("fp-a", now))
	assert.False(t, d.reserve("fp-a", now))

	// Reservations do not expire with the window; only commit or
	// release ends them.
	assert.False(t, d.reserve("fp-a", now.Add(time.Minute)))
}

func TestDedupIndexReleaseAllowsRetry(t *testing.T) {
	d := newDedupIndex(2 * time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.True(t, d.reserve("fp-a", now))
	d.release("fp-a")

	assert.True(t, d.reserve("fp-a", now))
}

func TestDedupIndexPrunesExpiredEntries(t *testing.T) {
	d := newDedupIndex(time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, fp := range []string{"a", "b", "c"} {
		require.True(t, d.reserve(fp, now))
		d.commit(fp, now)
	}

	require.True(t, d.reserve("unrelated", now.Add(time.Minute)))

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Len(t, d.entries, 1)
}

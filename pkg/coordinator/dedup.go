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
	"sync"
	"time"
)

// dedupIndex remembers content fingerprints for a sliding window so the
// same image arriving from two sources (clipboard poll and file watch,
// typically) is stored once. A fingerprint is reserved before the store
// begins, so two sources racing on the same capture cannot both pass the
// check while the first write is still on disk.
type dedupIndex struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]dedupEntry
}

type dedupEntry struct {
	at       time.Time
	inflight bool
}

func newDedupIndex(window time.Duration) *dedupIndex {
	return &dedupIndex{
		window:  window,
		entries: make(map[string]dedupEntry),
	}
}

// reserve claims fp for a store attempt at now. It fails when fp was
// already stored inside the window or another store of fp is in flight.
// Expired entries are pruned as a side effect; in-flight reservations
// never expire, they end only in commit or release.
func (d *dedupIndex) reserve(fp string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, entry := range d.entries {
		if !entry.inflight && now.Sub(entry.at) > d.window {
			delete(d.entries, key)
		}
	}

	if entry, ok := d.entries[fp]; ok {
		if entry.inflight || now.Sub(entry.at) <= d.window {
			return false
		}
	}

	d.entries[fp] = dedupEntry{inflight: true}

	return true
}

// commit converts fp's reservation into a stored record at now.
func (d *dedupIndex) commit(fp string, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries[fp] = dedupEntry{at: now}
}

// release drops fp's reservation after a failed store so the same bytes
// arriving later (or from another source) can retry.
func (d *dedupIndex) release(fp string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.entries, fp)
}

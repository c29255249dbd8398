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

package clipboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func clearDisplayEnv(t *testing.T) {
	t.Helper()

	t.Setenv("WAYLAND_DISPLAY", "")
	t.Setenv("XDG_SESSION_TYPE", "")
	t.Setenv("DISPLAY", "")
}

func TestDetectDisplayServerWayland(t *testing.T) {
	clearDisplayEnv(t)
	t.Setenv("WAYLAND_DISPLAY", "wayland-0")

	assert.Equal(t, DisplayWayland, DetectDisplayServer())
}

func TestDetectDisplayServerWaylandWinsOverX11(t *testing.T) {
	clearDisplayEnv(t)
	t.Setenv("WAYLAND_DISPLAY", "wayland-0")
	t.Setenv("DISPLAY", ":0")

	assert.Equal(t, DisplayWayland, DetectDisplayServer())
}

func TestDetectDisplayServerSessionType(t *testing.T) {
	clearDisplayEnv(t)
	t.Setenv("XDG_SESSION_TYPE", "X11")

	assert.Equal(t, DisplayX11, DetectDisplayServer())
}

func TestDetectDisplayServerDisplayFallback(t *testing.T) {
	clearDisplayEnv(t)
	t.Setenv("DISPLAY", ":0")

	assert.Equal(t, DisplayX11, DetectDisplayServer())
}

func TestDetectDisplayServerUnknown(t *testing.T) {
	clearDisplayEnv(t)

	assert.Equal(t, DisplayUnknown, DetectDisplayServer())
}

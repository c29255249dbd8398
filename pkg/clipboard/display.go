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
	"os"
	"os/exec"
	"strings"
)

// DisplayServer identifies the session's display protocol on Linux.
type DisplayServer string

const (
	DisplayWayland DisplayServer = "wayland"
	DisplayX11     DisplayServer = "x11"
	DisplayUnknown DisplayServer = "unknown"
)

// DetectDisplayServer inspects the session environment. Wayland wins when
// both are present, matching where the active clipboard lives.
func DetectDisplayServer() DisplayServer {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return DisplayWayland
	}

	switch strings.ToLower(os.Getenv("XDG_SESSION_TYPE")) {
	case "wayland":
		return DisplayWayland
	case "x11":
		return DisplayX11
	}

	if os.Getenv("DISPLAY") != "" {
		return DisplayX11
	}

	return DisplayUnknown
}

func commandAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// availableReadTools returns clipboard read tools for the current display
// server, most preferred first.
func availableReadTools() []string {
	var candidates []string

	switch DetectDisplayServer() {
	case DisplayWayland:
		candidates = []string{"wl-paste", "xclip", "xsel"}
	case DisplayX11:
		candidates = []string{"xclip", "xsel"}
	default:
		candidates = []string{"wl-paste", "xclip", "xsel", "pbpaste"}
	}

	tools := make([]string, 0, len(candidates))

	for _, tool := range candidates {
		if commandAvailable(tool) {
			tools = append(tools, tool)
		}
	}

	return tools
}

// availableWriteTools mirrors availableReadTools for the write side.
func availableWriteTools() []string {
	var candidates []string

	switch DetectDisplayServer() {
	case DisplayWayland:
		candidates = []string{"wl-copy", "xclip", "xsel"}
	case DisplayX11:
		candidates = []string{"xclip", "xsel"}
	default:
		candidates = []string{"wl-copy", "xclip", "xsel", "pbcopy"}
	}

	tools := make([]string, 0, len(candidates))

	for _, tool := range candidates {
		if commandAvailable(tool) {
			tools = append(tools, tool)
		}
	}

	return tools
}

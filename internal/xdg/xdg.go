// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

// Package xdg resolves the wepieces configuration location under the XDG
// Base Directory layout.
package xdg

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	appName        = "wepieces"
	configFileName = "config.yaml"
)

// ConfigDir returns $XDG_CONFIG_HOME/wepieces.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// DefaultConfigFile returns the path a config file is read from when none is
// given on the command line. The file may not exist.
func DefaultConfigFile() string {
	return filepath.Join(ConfigDir(), configFileName)
}

// FindConfigFile looks for wepieces/config.yaml in $XDG_CONFIG_HOME and then
// $XDG_CONFIG_DIRS. ok is false when no file exists.
func FindConfigFile() (path string, ok bool) {
	found, err := xdg.SearchConfigFile(filepath.Join(appName, configFileName))
	if err != nil {
		return "", false
	}
	return found, true
}

// Reload re-reads the XDG environment variables.
func Reload() {
	xdg.Reload()
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

package store

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFS_EmbeddedFiles(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	names := make(map[string]bool)
	pattern := regexp.MustCompile(`^\d{6}_\w+\.(up|down)\.sql$`)
	for _, entry := range entries {
		names[entry.Name()] = true
		assert.True(t, pattern.MatchString(entry.Name()),
			"file %s should match NNNNNN_name.(up|down).sql", entry.Name())
	}

	for name := range names {
		if up, ok := strings.CutSuffix(name, ".up.sql"); ok {
			assert.True(t, names[up+".down.sql"], "%s has no down migration", name)
		}
	}
	assert.True(t, names["000001_create_users.up.sql"])
	assert.True(t, names["000002_create_notes.up.sql"])
}

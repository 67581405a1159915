package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveConfigPath(t *testing.T) {
	assert.Equal(t, "custom.toml", resolveConfigPath("custom.toml"))

	t.Setenv("PORTGRAPH_CONFIG", filepath.Join("etc", "pg.toml"))
	assert.Equal(t, filepath.Join("etc", "pg.toml"), resolveConfigPath(""))

	t.Setenv("PORTGRAPH_CONFIG", "")
	// Without a file next to the binary the development fallback wins.
	assert.Equal(t, "config/portgraph.toml", resolveConfigPath(""))
}

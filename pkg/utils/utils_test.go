package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(file, []byte("LOG_LEVEL=debug"), 0o644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "missing.yml")))
	assert.False(t, FileExists(dir), "directories are not files")
}

func TestMap(t *testing.T) {
	symbols := Map([]string{"weth", "wbtc"}, strings.ToUpper)
	assert.Equal(t, []string{"WETH", "WBTC"}, symbols)

	assert.Empty(t, Map([]int{}, func(i int) int { return i }))
}

func TestFilter(t *testing.T) {
	factors := []float64{0.5, 1.0, 0.99, 2.5}
	below := Filter(factors, func(f float64) bool { return f < 1.0 })
	assert.Equal(t, []float64{0.5, 0.99}, below)

	assert.Nil(t, Filter(factors, func(float64) bool { return false }))
}

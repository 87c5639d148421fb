package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShort(t *testing.T) {
	defer func(v, c string) { Version, GitCommit = v, c }(Version, GitCommit)

	Version, GitCommit = "v1.2.0", "unknown"
	assert.Equal(t, "v1.2.0", Short())

	GitCommit = "0123456789abcdef"
	assert.Equal(t, "v1.2.0 (0123456)", Short())
}

func TestString(t *testing.T) {
	s := String()
	assert.Contains(t, s, Name)
	assert.Contains(t, s, "Version: "+Version)
	assert.Contains(t, s, "Go Version: "+GoVersion)
}

func TestLogAttrs(t *testing.T) {
	attrs := LogAttrs()
	assert.Len(t, attrs, 6)
	assert.Equal(t, "version", attrs[0])
}

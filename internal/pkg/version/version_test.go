package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	oldVersion, oldCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = oldVersion, oldCommit })

	Version, GitCommit = "v1.2.0", "0123456789abcdef"
	info := Get()
	assert.Equal(t, "v1.2.0", info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.Contains(t, info.String(), "pcapview v1.2.0 (commit: 0123456,")
}

func TestShortCommit(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"unknown", "unknown"},
		{"abc", "abc"},
		{"0123456789", "0123456"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, shortCommit(tt.in))
		})
	}
}

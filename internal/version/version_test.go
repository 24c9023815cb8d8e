package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo_IsRelease(t *testing.T) {
	t.Parallel()

	tests := []struct {
		version string
		release bool
	}{
		{"dev", false},
		{"1.2.0", true},
		{"v0.4.1", true},
		{"1.3.0-rc.1", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.release, Info{Version: tt.version}.IsRelease())
		})
	}
}

func TestInfo_Full(t *testing.T) {
	t.Parallel()

	info := Info{Version: "dev", Commit: "abc123", BuildDate: "2026-01-01", GoVersion: "go1.25", Platform: "linux/amd64"}
	assert.Equal(t, "dev (abc123) built 2026-01-01 go1.25 linux/amd64 [development build]", info.Full())

	info.Version = "1.0.0"
	assert.NotContains(t, info.Full(), "development")
	assert.Equal(t, "1.0.0", info.String())
}

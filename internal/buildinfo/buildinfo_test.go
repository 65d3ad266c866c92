package buildinfo

import (
	"runtime/debug"
	"testing"
)

func TestDevVersion(t *testing.T) {
	tests := []struct {
		name string
		info *debug.BuildInfo
		want string
	}{
		{
			name: "no vcs info",
			info: &debug.BuildInfo{},
			want: "dev",
		},
		{
			name: "clean build",
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123def4567890"},
				{Key: "vcs.modified", Value: "false"},
			}},
			want: "dev-abc123def456",
		},
		{
			name: "dirty build",
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123def4567890"},
				{Key: "vcs.modified", Value: "true"},
			}},
			want: "dev-abc123def456-dirty",
		},
		{
			name: "short revision kept as-is",
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
			}},
			want: "dev-abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := devVersion(tt.info); got != tt.want {
				t.Errorf("devVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVersionNeverEmpty(t *testing.T) {
	if Version() == "" {
		t.Error("Version() must never be empty")
	}
}

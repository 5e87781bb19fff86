package version

import (
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withVersion(t *testing.T, v, c string) {
	t.Helper()
	oldV, oldC := Version, Commit
	Version, Commit = v, c
	t.Cleanup(func() { Version, Commit = oldV, oldC })
}

func TestApplyBuildInfo(t *testing.T) {
	tests := []struct {
		name        string
		info        *debug.BuildInfo
		wantVersion string
		wantCommit  string
	}{
		{
			name: "module version and dirty revision",
			info: &debug.BuildInfo{
				Main: debug.Module{Version: "v1.4.0"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123456789abcdef"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			wantVersion: "v1.4.0",
			wantCommit:  "0123456-dirty",
		},
		{
			name: "devel build uses commit time",
			info: &debug.BuildInfo{
				Main: debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abc"},
					{Key: "vcs.time", Value: "2024-05-01T10:00:00Z"},
				},
			},
			wantVersion: "dev-20240501",
			wantCommit:  "abc",
		},
		{
			name:        "no vcs info",
			info:        &debug.BuildInfo{},
			wantVersion: "",
			wantCommit:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withVersion(t, "", "")
			applyBuildInfo(tt.info)
			assert.Equal(t, tt.wantVersion, Version)
			assert.Equal(t, tt.wantCommit, Commit)
		})
	}
}

func TestApplyBuildInfo_KeepsLdflags(t *testing.T) {
	withVersion(t, "v2.0.0", "")
	applyBuildInfo(&debug.BuildInfo{Main: debug.Module{Version: "v1.0.0"}})
	assert.Equal(t, "v2.0.0", Version)
}

func TestFormatting(t *testing.T) {
	withVersion(t, "v1.2.3", "abc1234")

	assert.Equal(t, "v1.2.3 (commit: abc1234)", Full())
	assert.Equal(t, "1.2.3", Short())
	assert.True(t, strings.HasPrefix(UserAgent(), "sendpair/1.2.3 ("))
}

// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	origName, origTime, origCommit, origVersion := buildName, buildTime, buildCommit, buildVersion
	origInfo := info

	exitCode := m.Run()

	buildName, buildTime, buildCommit, buildVersion = origName, origTime, origCommit, origVersion
	info = origInfo
	os.Exit(exitCode)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantErr     []string
		want        Info
	}{
		{
			"All set",
			"tuner-pro", "2025-04-13T10:00:00Z", "abcdef1", "v1.0.0",
			nil,
			Info{"tuner-pro", "2025-04-13T10:00:00Z", "abcdef1", "v1.0.0"},
		},
		{
			"Default name",
			"", "2025-04-13T10:00:00Z", "abcdef1", "v1.0.0",
			nil,
			Info{"tuner", "2025-04-13T10:00:00Z", "abcdef1", "v1.0.0"},
		},
		{
			"Missing version",
			"", "2025-04-13T10:00:00Z", "abcdef1", "",
			[]string{"buildVersion is not set"},
			Info{"tuner", "2025-04-13T10:00:00Z", "abcdef1", "dev"},
		},
		{
			"Development build",
			"", "", "", "",
			[]string{"buildVersion", "buildCommit", "buildTime"},
			Info{"tuner", "unknown", "unknown", "dev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			err := Initialize()
			if len(tt.wantErr) == 0 && err != nil {
				t.Errorf("Initialize() unexpected error: %v", err)
			}
			if len(tt.wantErr) > 0 && err == nil {
				t.Errorf("Initialize() expected error, got nil")
			}
			for _, substr := range tt.wantErr {
				if err != nil && !strings.Contains(err.Error(), substr) {
					t.Errorf("Initialize() error = %v, want mention of %s", err, substr)
				}
			}
			if got := Get(); got != tt.want {
				t.Errorf("Get() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	i := Info{Name: "tuner", Time: "2025-04-13", Commit: "abcdef1", Version: "v1.0.0"}
	if got, want := i.String(), "tuner v1.0.0 (commit abcdef1, built 2025-04-13)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

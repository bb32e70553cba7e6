// SPDX-License-Identifier: MIT
//
// Package build exposes metadata embedded at link time:
//
//	go build -ldflags "-X tuner/pkg/build.buildVersion=0.1.0 \
//	  -X tuner/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	  -X tuner/pkg/build.buildTime=$(date -u +%FT%TZ)"
//
// Development builds without ldflags report "dev".
package build

import (
	"errors"
	"fmt"
)

const defaultName = "tuner"

// Info describes the running binary.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// String formats the info for `--version` output.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	info         = devInfo()
)

func devInfo() Info {
	return Info{Name: defaultName, Time: "unknown", Commit: "unknown", Version: "dev"}
}

// Initialize copies the ldflags values into the info returned by Get.
// Missing values are reported together and left at their development
// defaults, so callers may treat the error as a warning.
func Initialize() error {
	info = devInfo()
	if buildName != "" {
		info.Name = buildName
	}

	var errs []error
	set := func(dst *string, val, flag string) {
		if val == "" {
			errs = append(errs, fmt.Errorf("%s is not set", flag))
			return
		}
		*dst = val
	}
	set(&info.Version, buildVersion, "buildVersion")
	set(&info.Commit, buildCommit, "buildCommit")
	set(&info.Time, buildTime, "buildTime")

	return errors.Join(errs...)
}

// Get returns the current build information.
func Get() Info {
	return info
}

// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"text/tabwriter"
)

// Overridden via ldflags.
var (
	Version    = "unknown-version"
	GitCommit  = "unknown-commit"
	BuildTime  = "unknown-buildtime"
	APIVersion = "v1"
)

// BuildInfo returns version details of the binary, one per line. The git commit falls back to
// the revision recorded by the Go toolchain.
func BuildInfo() string {
	commit := GitCommit
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && commit == "unknown-commit" {
				commit = setting.Value
			}
		}
	}
	var builder strings.Builder
	w := tabwriter.NewWriter(&builder, 0, 8, 1, ' ', 0)
	_, _ = fmt.Fprintf(w, "Version:\t%s\n", Version)
	_, _ = fmt.Fprintf(w, "API version:\t%s\n", APIVersion)
	_, _ = fmt.Fprintf(w, "Go version:\t%s\n", runtime.Version())
	_, _ = fmt.Fprintf(w, "Git commit:\t%s\n", commit)
	_, _ = fmt.Fprintf(w, "Built:\t%s\n", BuildTime)
	_, _ = fmt.Fprintf(w, "OS/Arch:\t%s/%s\n", runtime.GOOS, runtime.GOARCH)
	_ = w.Flush()
	return builder.String()
}

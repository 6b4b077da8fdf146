// Package buildinfo reports which orgchart build is running.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/orgchart/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/orgchart/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/orgchart/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Binaries built with go install carry no ldflags; for those the module
// version and VCS settings recorded by the toolchain are used instead.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var fromModule = sync.OnceFunc(func() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && Commit == "none":
			Commit = s.Value
		case s.Key == "vcs.time" && Date == "unknown":
			Date = s.Value
		}
	}
})

// Resolved returns version, commit and build date, filling unstamped
// values from the module build info.
func Resolved() (version, commit, date string) {
	fromModule()
	return Version, Commit, Date
}

// String formats the build for `orgchart --version` style output.
func String() string {
	v, c, d := Resolved()
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", v, c, d)
}

// Template is the cobra version template.
func Template() string {
	v, c, d := Resolved()
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", v, c, d)
}

// UserAgent is sent by the backend client and reported by /healthz.
func UserAgent() string {
	v, _, _ := Resolved()
	return "orgchart/" + v
}

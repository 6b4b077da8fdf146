// Package cli implements the orgchart command-line interface.
//
// The commands fetch department hierarchies from the backend or read them
// from local JSON/YAML files, run them through the flatten and layout
// pipeline, and write or serve the result. The CLI is built using cobra
// and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - layout: Lay out a hierarchy file offline
//   - fetch: Lay out the backend hierarchy and save a snapshot
//   - login, logout, whoami: Manage the backend session
//   - create, update, delete: Edit departments
//   - browse: Interactive terminal chart
//   - serve: HTTP API over the pipeline
//   - history: List and re-render saved snapshots
//   - export-neo4j: Push a layout into Neo4j
//   - cache: Manage the local cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports pipeline stages and cache hits.
//
// # Example
//
//	import "github.com/matzehuels/orgchart/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at debug level with the elapsed time, rounded to the
// millisecond. Example output: "DEBU laid out nodes=42 elapsed=12ms"
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Debug(msg, append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))...)
}

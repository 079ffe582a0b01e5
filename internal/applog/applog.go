// Package applog is this engine's thin logging shim, in the style of
// gofem's inp package (LogErr/LogErrCond): a couple of narrow helpers
// over the standard logger rather than a structured logging framework.
// No example repo in this corpus reaches for a third-party logging
// library for anything beyond stdlib "log" (gofem's own logging.go wraps
// it, not replaces it), and this engine's own error model already
// carries full structured context in enginerr.Diagnostic — so applog's
// only job is reporting a terminal failure to the operator, not
// structured event logging.
package applog

import "log"

// Fatal logs a fatal diagnostic and terminates the process, mirroring
// the graph library's example mains (log.Fatalf on the first error).
// The engine itself never calls this — only cmd/symgraph's entry point
// does, at the single point a run fails and there is nothing left to do
// but report and exit.
func Fatal(op string, err error) {
	log.Fatalf("%s: %v", op, err)
}

// Errorf logs a non-fatal diagnostic, naming the operation that failed.
func Errorf(op, format string, args ...interface{}) {
	log.Printf("%s: "+format, append([]interface{}{op}, args...)...)
}

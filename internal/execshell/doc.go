// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging and lifecycle events via ShellExecutor, exposes
// OSCommandRunner for default process execution, and defines the abstractions
// gitmirror uses to run git and gh in a testable manner.
package execshell

// Package mirror implements the repository mirroring lifecycle: blocklist
// screening, daily quota accounting, mirror creation and ref transfer, and
// retry queue draining, plus the cobra commands presenting those operations.
package mirror

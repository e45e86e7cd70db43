// Package statefile persists small JSON state documents with atomic
// write-whole-file-then-rename semantics shared by the quota tracker and the
// retry queue.
package statefile

// Package gitrepo contains helpers for interrogating and manipulating Git repositories.
//
// It exposes MirrorTransport for the narrow set of git operations mirroring
// requires (mirror clone, mirror push, remote configuration) along with remote
// URL parsing, formatting, and credential embedding utilities.
package gitrepo

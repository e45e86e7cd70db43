// Package ui renders shell command lifecycle events as concise console
// messages for human-readable runs, with URL credentials masked, while
// structured telemetry keeps flowing through zap in the default mode.
package ui

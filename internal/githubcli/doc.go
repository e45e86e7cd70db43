// Package githubcli wraps the GitHub CLI for mirror workflows.
//
// It layers typed request and response structures for gh subcommands, detects
// not-found and name-collision responses from gh stderr, retries rate-limited
// API calls with bounded backoff, and integrates with execshell so GitHub
// interactions can be stubbed during testing.
package githubcli

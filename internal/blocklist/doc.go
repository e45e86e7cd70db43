// Package blocklist decides which repositories must never be mirrored.
//
// A Matcher evaluates normalized repository URLs against an ordered pattern
// list: implicit guards for the mirror organization itself, configured
// defaults, then user patterns persisted as YAML under the metadata directory.
// The package also provides the blocklist CLI command tree.
package blocklist

// Package quota enforces the daily mirror creation limit.
//
// A Tracker keeps a single JSON state document with the current local date and
// the count of mirrors created on that date. The count rolls over lazily when
// the calendar day changes; the quota command reports the current usage.
package quota

// Package dedupe collapses repeated keys inside a time window.
//
// The console uses it to keep a burst of identical notices (for example several
// requests failing with 401 at once) down to a single line for the user.
package dedupe

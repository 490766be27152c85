// Package preflight provides readiness checks for the tools, directories and
// services a run depends on.
//
// The CLI "check" command prints every result; "run" calls RunAll before
// touching the feed and refuses to start when a required check fails.
package preflight

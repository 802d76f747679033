// Package preflight provides readiness checks for the filesystem paths a run
// depends on.
//
// The daemon runs RunAll before serving so a convert or clean trigger cannot
// start against an unwritable staging or data directory, and the CLI "status"
// command renders the individual results for operators.
package preflight

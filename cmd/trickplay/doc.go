// Package main hosts the trickplay CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into
// conversion and cleanup runs, the long-running daemon, status rendering, and
// configuration scaffolding. It centralizes configuration resolution and
// logger setup so subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main

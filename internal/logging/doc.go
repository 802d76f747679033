// Package logging builds the slog loggers used across the CLI and daemon.
//
// It offers a console handler that renders compact single-line output with a
// leading component tag, a JSON handler for machine consumption, attribute
// helper aliases, and a no-op logger for tests. Log destinations come from
// config: stdout always, plus trickplay.log under the configured log
// directory.
package logging

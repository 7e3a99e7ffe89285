// Package console renders a debate transcript to a terminal.
//
// A Printer subscribes to the event bus and writes each event as it
// arrives: turns with the speaker's label, round separators, compression
// notices and the closing statements. Internal monologue is only shown when
// thoughts are enabled. Text is wrapped to the terminal width, or to a fixed
// width when one is configured.
package console

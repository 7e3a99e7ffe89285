// Package event provides a synchronous pub-sub bus that lets the debate loop
// report progress without knowing who is listening.
//
// The loop publishes; the console printer and the logger subscribe. Handlers
// run on the publisher's goroutine in registration order, specific
// subscribers before wildcard ones. A panicking handler is recovered and
// logged so it cannot stop delivery to the others.
//
// Event types follow the "category.action" convention:
//
//   - [DebateStartedEvent]     debate.started
//   - [ThoughtEvent]           debate.thought
//   - [TurnEvent]              debate.turn
//   - [HistoryCompressedEvent] debate.compressed
//   - [RoundCompletedEvent]    debate.round
//   - [DebateConcludedEvent]   debate.concluded
//   - [DebateFailedEvent]      debate.failed
package event

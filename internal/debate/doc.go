// Package debate runs a fixed-length debate between two reasoners, with a
// third reasoner condensing long argument histories.
//
// # Turn Shape
//
// Every turn has the same steps. The debater's conversation is replaced with
// a recap of the topic and both histories. The debater brainstorms in its
// internal monologue, lists candidate arguments, thinks about which is
// strongest, picks one, and speaks. The spoken reply is appended to the
// debater's history.
//
// A round is debater A's turn followed by debater B's. After each round any
// history longer than the compression threshold is replaced by a single
// summary. After the last round both debaters give a closing statement that
// separates objective facts from subjective opinions; B's closing responds
// to A's.
//
// # Session Lifecycle
//
//   - Pending: created, no turn taken yet
//   - Active: Run has started
//   - Concluded: both closing statements were given
//   - Failed: a step returned an error; the session cannot be resumed
//
// # Usage
//
//	bus := event.NewBus(logger)
//	sess, err := debate.NewSession("Remote work beats office work", debate.Debaters{
//		A:          debate.NewDebaterA(completer),
//		B:          debate.NewDebaterB(completer),
//		Summarizer: debate.NewSummarizer(completer),
//	}, debate.DefaultConfig(), debate.WithBus(bus))
//	conclusion, err := sess.Run(ctx)
//
// A Session is driven by one goroutine. State may be read from others.
package debate

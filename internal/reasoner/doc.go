// Package reasoner drives a completion service through a single linear
// conversation that alternates between a private "internal monologue" and
// visible "external dialogue".
//
// The two modes share one message log. Crossing from one to the other
// appends marker messages so the model is told, in-band, which side of the
// boundary it is on; nothing is hidden from the model. Internal entries are
// prefixed with "[Internal Monologue]: ".
//
// On top of the free-text modes, a Reasoner extracts structured values by
// offering the model exactly one function and forcing it to call it:
// [Reasoner.ParseResponseOptions] for a list of candidate replies,
// [Reasoner.Choose] for an index into such a list, and
// [Reasoner.ExtractInfo] for an arbitrary typed value described by a
// one-field template such as "The age is {age}".
//
// A Reasoner is not safe for concurrent use.
package reasoner

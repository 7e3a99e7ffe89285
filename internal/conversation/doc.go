// Package conversation holds the ordered, role-tagged message log that a
// reasoner sends to the completion service on every call.
//
// A [Log] only grows by appending, or is reset wholesale with [Log.Set].
// Stored messages are never edited in place; [Log.Messages] hands out a copy.
package conversation

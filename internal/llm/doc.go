// Package llm defines the contract between a reasoner and the completion
// service, and implements it for the OpenAI, Azure OpenAI and Anthropic APIs.
//
// A [Request] carries the full message history and, optionally, a set of
// function schemas plus the name of the one function the model must call.
// A [Response] is either free text (RoleAssistant) or a structured call
// (RoleFunction with Name and Args). Providers never retry and never cache:
// every Complete call is exactly one round trip.
package llm

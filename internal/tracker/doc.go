// Package tracker classifies runtime values for the call recorder.
//
// Every argument and return value of an intercepted call falls into one of
// three classes:
//
//   - Untracked: primitives (bool, numbers, strings), embedded literally
//   - SemiTracked: small containers of primitives, and named things such as
//     types and functions, embedded as a one-line summary string
//   - Tracked: everything else, given a durable identity (a random UUID)
//     that is stable for the same object for the life of the process
//
// Tracked objects are kept in two indices, by memory address and by durable
// identity. A task database later asks the tracker to describe an identity
// it has seen in a call record; the description comes from a Registry of
// per-type describers with a generic fallback.
package tracker

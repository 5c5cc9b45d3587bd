// Package store implements the task database: the append-only, JSON-backed
// call log for one (project, task) pair.
//
// A database file lives at <dir>/<project>.<task>.json and holds exactly two
// top-level keys:
//
//	{
//	  "entities": {"<entity key>": [<entry>, ...], ...},
//	  "uuids":    {"<identity>": <description>, ...}
//	}
//
// Entries under an entity key are kept in call order and never removed or
// reordered. Every durable identity referenced by an entry's arguments or
// return value is described at most once in "uuids", on first sight, using
// the configured Resolver. Identities the resolver does not know are skipped.
//
// # Persistence
//
// Save is throttled: a non-forced save only writes when more than savefreq
// whole minutes have passed since the last save attempt. When the writable
// flag is off the throttle window still advances but nothing touches the
// filesystem. Writes go through a temporary file and rename, and files are
// encoded as canonical JSON so identical state always yields identical bytes.
// A failed write is reported in the SaveResult; the in-memory state is never
// modified by Save.
//
// Files are validated against a CUE schema on load. Any other top-level shape
// is rejected with ErrInvalidFormat.
//
// Thread-safety: a TaskDB is safe for concurrent use; one mutex guards its
// state.
package store

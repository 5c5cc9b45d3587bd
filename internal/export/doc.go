// Package export mirrors a task database into a SQLite file for ad-hoc SQL
// queries.
//
// Tables:
//   - calls(entity, seq, entry, returns): one row per recorded call. seq
//     starts at 1 and follows call order within an entity. entry and
//     returns hold canonical JSON.
//   - objects(uuid, description): one row per described identity.
//
// The mirror is a read-only consumer of the JSON file format; the JSON file
// stays the source of truth.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package export

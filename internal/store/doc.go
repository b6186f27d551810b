// Package store is the SQLite storage of the reference backend: the shared
// chat feed, each caller's private questions, and profiles.
//
// # Conventions
//
//   - Timestamps are nanoseconds since the Unix epoch, drawn from a strictly
//     monotonic clock, so no two records share a timestamp.
//   - Messages are listed newest first; a page of limit/offset therefore holds
//     the most recent messages. Clients re-sort for display.
//   - Questions are private: every question query is scoped to the author.
//     They are listed newest first, like messages.
//   - Only the answer of a question changes after creation; saving an answer
//     stamps modified_at.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

// Package datasync keeps local views of remote collections fresh.
//
// The engine holds one cache entry per collection key. Entries are refreshed
// by pulling: on subscription, on invalidation after a successful write, and
// on a visibility-aware polling timer. There is no server push.
//
// # Invariants
//
//   - At most one fetch per key is outstanding at any time. The engine keeps a
//     registry of pending fetches keyed by collection; a trigger that arrives
//     while a fetch is pending joins it instead of issuing another request.
//     Because of this, fetch results are applied in completion order without
//     any risk of an older response overwriting a newer one.
//   - Items are re-sorted with a stable sort after every fetch, so ties keep
//     the backend's order.
//   - Cache entries are mutated only by the engine. Snapshots hand out copies.
//   - A fetch that resolves after every subscriber of its key has gone away is
//     discarded and the entry stays stale.
//
// Fetches are not cancelled when subscribers leave; they run to completion on
// a context detached from the subscriber.
package datasync

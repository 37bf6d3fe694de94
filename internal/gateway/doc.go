// Package gateway defines the remote collection gateway contracts the
// sync layer consumes - per-collection range/point reads, point upserts,
// and subscribe-to-changes feeds - together with a SQLite-backed
// implementation that stands in for the shared remote store.
//
// One Store is the durable source of truth; each client (tab or device)
// obtains its own Client handle from it. A mutation performed through one
// client's gateway is fanned out on the collection's change feed to every
// other client's subscription, but never back to the originator, matching
// the remote store's "broadcast self off" subscription behavior. Cross-tab
// fan-out at the same origin is the replication bus's job, a deliberately
// independent propagation path.
package gateway

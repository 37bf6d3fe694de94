// Package syncer is the client-side orchestrator. It owns one state
// container per open client and keeps it converged with everyone else
// through two independent channels: the remote change feeds of the
// shared gateway store, and the same-origin broadcast bus.
//
// Mutations fall into two write policies. Guard mutations are
// write-through: the remote write happens first and local state only
// moves on success, because guard identity feeds referential integrity
// everywhere else. Schedule, attendance, template, user, and theme
// mutations are optimistic: local state moves immediately and the remote
// write (or mirror save) is best-effort.
//
// Everything received from a peer - a bus envelope or a change-feed
// event - is applied through the transition function and never
// re-published. Echo prevention is structural: the bus never delivers to
// the sender and the feeds never deliver to the originating client, so
// no payload inspection or dedup bookkeeping is needed.
package syncer

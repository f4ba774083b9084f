// Package idgraph provides the data-consistency and command-execution core
// of a personal identity graph: who-owns-what across email accounts, paid
// services, and subscriptions. It is designed to be local-first and
// auditable, keeping the graph coherent under two independent write paths: a
// conventional form-driven flow, and batches of structured commands emitted
// by a natural-language assistant.
//
// The core functionalities include:
//   - Field Reconciliation: Keeping the historical alias fields of a service
//     (ownership lists, website/login URL, billing email) mutually consistent
//     on every write.
//   - Billing Cycles: Pure date arithmetic to roll a recurring billing date
//     past the present at read time, and to reject historical dates at write
//     time.
//   - Currency Normalization: Detecting the dominant currency of the graph,
//     fetching and caching exchange rates, and aggregating monthly-equivalent
//     costs into a single reporting figure.
//   - Command Execution: Applying an ordered batch of assistant-issued
//     commands against the graph, best-effort, with one reported outcome per
//     command.
//   - Data Persistence: Handling the encoding and decoding of the graph to
//     and from human-readable, version-controllable formats (JSONL).
//
// This package serves as the foundational logic for the `idg` command-line
// tool, ensuring that both write paths go through a single source of truth.
package idgraph

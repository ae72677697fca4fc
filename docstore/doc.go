// Package docstore persists compiled workflow documents in SQLite.
//
// The store is a build-time artifact registry: each Save records one
// serialized document for an agent, so deployments can be compared and
// rolled back. It does not hold any runtime conversation state.
package docstore

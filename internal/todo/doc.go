// Package todo owns the in-memory task list and its mutations.
//
// A Store is the only mutator of the list. It enforces the list invariants:
//
//   - every task ID is unique within the store
//   - task text is never blank and never carries leading or trailing whitespace
//   - tasks keep insertion order; there is no reordering
//
// Invalid input is not an error. Blank text and unknown IDs turn an operation
// into a no-op that reports rejection through its return value:
//
//	task, ok := store.Add("  ")         // ok == false, list unchanged
//	changed := store.Edit(id, "")       // false, original text kept
//	completed, ok := store.Toggle(999)  // ok == false
//
// # Persistence
//
// The store talks to durable storage through the Persister interface. It loads
// a snapshot once in New and saves the whole list after every successful
// mutation, before the next mutation is accepted. Load and save failures are
// logged and never roll back or block the in-memory list.
//
// # Misuse
//
// Using a nil or zero-value Store panics with a *MisuseError. That is the one
// hard failure in the package: it signals a wiring defect, not bad data.
package todo

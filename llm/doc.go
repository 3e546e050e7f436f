// Package llm isolates the language-model collaborator behind a narrow
// contract. The routing and handoff state machines stay deterministic given
// this package's outputs; transport or parsing failures surface as soft
// results, never as session faults.
package llm

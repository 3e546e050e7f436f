// Package session holds the per-call mutable state: the active capability
// bundle, the single pending action slot, the most recent lookup results,
// and the append-only transcript. One call owns one Context; turns are
// processed strictly sequentially under the context's turn lock.
package session

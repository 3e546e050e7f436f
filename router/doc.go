// Package router turns a caller's first free-form request into a transfer
// to one of the closed set of departments. Classification is delegated to a
// language model but its output is bounded: anything outside the known
// domain tags degrades into a spoken apology, never an error surfaced to
// the caller.
package router

// Package confirm implements the two-phase mutation workflow: every
// consequential action is first staged as a preview, read back to the
// caller, and only executed after an explicit confirmation in a later turn.
package confirm

// Package runtime drives conversations: the engine handles one utterance
// at a time (closing detection, dispatch routing, tool planning, handoff
// application), the worker runs a whole session over a transport
// connection, and the filler covers model latency with pre-recorded
// thinking audio. Every collaborator failure degrades into a spoken
// apology; nothing in here terminates a call abnormally.
package runtime
